package dimension

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/metrics"
)

// KeyGenerator produces the dimension specific part of a key. It returns
// false when the event does not belong to the dimension.
type KeyGenerator interface {
	Name() string
	CustomKey(ctx context.Context, interaction *domain.Interaction, event domain.Event, eventType domain.EmailEventType) (string, bool)
}

type UniqueEventCache interface {
	HasUniqueEvent(ctx context.Context, key domain.UniqueEventKey) (bool, error)
	SetUniqueEvent(ctx context.Context, key domain.UniqueEventKey) error
}

type ContactStore interface {
	Get(ctx context.Context, contactID uuid.UUID, expand ...string) (*domain.Contact, error)
}

type Retrier interface {
	Do(ctx context.Context, op string, fn func(ctx context.Context) error, isTransient func(err error) bool) error
}

type Aggregator struct {
	keys        KeyGenerator
	cache       UniqueEventCache
	contacts    ContactStore
	retrier     Retrier
	isTransient func(err error) bool
	logger      zerolog.Logger
}

func New(
	keys KeyGenerator,
	cache UniqueEventCache,
	contacts ContactStore,
	retrier Retrier,
	isTransient func(err error) bool,
	logger zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		keys:        keys,
		cache:       cache,
		contacts:    contacts,
		retrier:     retrier,
		isTransient: isTransient,
		logger:      logger.With().Str("dimension", keys.Name()).Logger(),
	}
}

// Dimensions is the pipeline entry point. Errors are logged and produce no
// dimensions for the interaction.
func (a *Aggregator) Dimensions(ctx context.Context, interaction *domain.Interaction) []domain.DimensionResult {
	if interaction == nil {
		return nil
	}
	l := a.logger.With().Str("interaction", interaction.ID.String()).Logger()
	l.Debug().Msg("processing dimension")

	dimensions, err := a.ComputeDimensions(ctx, interaction)
	if err != nil {
		l.Error().Err(err).Msg("failed to compute dimensions")
		dimensions = nil
	}

	l.Debug().Int("count", len(dimensions)).Msg("dimension processed")
	return dimensions
}

// ComputeDimensions builds one result per email event that has a complete
// key. Contact store failures abort the computation.
func (a *Aggregator) ComputeDimensions(ctx context.Context, interaction *domain.Interaction) ([]domain.DimensionResult, error) {
	if interaction == nil {
		return nil, fmt.Errorf("%w: interaction not set", domain.ErrInvalidArgument)
	}

	emailEvents := interaction.EmailEvents()
	if len(emailEvents) == 0 {
		a.logger.Debug().Str("interaction", interaction.ID.String()).Msg("no email events found")
		return []domain.DimensionResult{}, nil
	}

	dimensions := make([]domain.DimensionResult, 0, len(emailEvents))
	for _, emailEvent := range emailEvents {
		eventType := domain.ParseEmailEventType(emailEvent)

		key, ok := a.dimensionKey(ctx, interaction, emailEvent, eventType)
		if !ok {
			continue
		}

		w := newWindow(emailEvent, emailEvents)
		m := w.metrics(emailEvent, interaction.Events)

		if eventType == domain.EmailEventOpen || eventType == domain.EmailEventClick {
			unique, err := a.isUniqueEvent(ctx, interaction.ContactID, emailEvent, eventType)
			if err != nil {
				return nil, err
			}
			if unique {
				m.Count = 1
			}
		}

		metrics.DimensionsEmitted.WithLabelValues(eventType.String()).Inc()
		dimensions = append(dimensions, domain.DimensionResult{
			Key:     key,
			Metrics: m,
		})
	}
	return dimensions, nil
}

func (a *Aggregator) dimensionKey(
	ctx context.Context,
	interaction *domain.Interaction,
	event domain.Event,
	eventType domain.EmailEventType,
) (string, bool) {
	custom, ok := a.keys.CustomKey(ctx, interaction, event, eventType)
	if !ok {
		return "", false
	}

	if event.ManagerRootID == uuid.Nil {
		metrics.DimensionsSkipped.WithLabelValues("no_manager_root").Inc()
		a.logger.Debug().Str("parameter", "ManagerRootID").Msg("parameter is empty, dimension will not be processed")
		return "", false
	}
	if event.MessageID == uuid.Nil {
		metrics.DimensionsSkipped.WithLabelValues("no_message").Inc()
		a.logger.Debug().Str("parameter", "MessageID").Msg("parameter is empty, dimension will not be processed")
		return "", false
	}

	base, _ := HierarchicalKey(event.ManagerRootID, event.MessageID)
	b := &KeyBuilder{}
	return b.Add(base).Add(custom).String(), true
}

// window is the half-open period [from, until) an email event is credited
// with. An unbounded window has no end.
type window struct {
	from      time.Time
	until     time.Time
	unbounded bool
}

// newWindow ends at the first later email event in timeline order.
func newWindow(event domain.Event, emailEvents []domain.Event) window {
	for _, next := range emailEvents {
		if next.Timestamp.After(event.Timestamp) {
			return window{from: event.Timestamp, until: next.Timestamp}
		}
	}
	return window{from: event.Timestamp, unbounded: true}
}

func (w window) contains(ts time.Time) bool {
	if ts.Before(w.from) {
		return false
	}
	return w.unbounded || ts.Before(w.until)
}

func (w window) metrics(emailEvent domain.Event, events []domain.Event) domain.MetricsBundle {
	m := domain.MetricsBundle{
		Visits:    1,
		PageViews: 1,
	}

	browsed := 0
	var parent *domain.Event
	for i := range events {
		e := events[i]
		inWindow := w.contains(e.Timestamp)
		if inWindow {
			m.Value += e.EngagementValue
		}

		switch e.Kind {
		case domain.KindPageView:
			isParent := emailEvent.HasParent() && e.ID == emailEvent.ParentEventID
			// the first page with the parent id is the parent, later
			// duplicates are neither parent nor browsed
			if isParent && parent == nil {
				parent = &events[i]
			}
			if inWindow && !isParent {
				browsed++
			}
		case domain.KindGoal:
			if inWindow {
				m.Conversions++
			}
		}
	}

	m.PageViews += browsed
	if browsed == 0 {
		m.Bounces = 1
	}
	if parent != nil {
		m.TimeOnSite = int(parent.Duration / time.Second)
	}
	return m
}
