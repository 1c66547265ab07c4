package dimension

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/metrics"
)

type LocationResolver interface {
	Resolve(ctx context.Context, ipAddress string) (*domain.LocationInfo, error)
}

// ByLocation buckets email events by event type and the contact's location.
// Clicks and unsubscribes carry the location of the interaction, opens are
// looked up by the interaction's address.
type ByLocation struct {
	resolver LocationResolver
	logger   zerolog.Logger
}

func NewByLocation(resolver LocationResolver, logger zerolog.Logger) *ByLocation {
	return &ByLocation{
		resolver: resolver,
		logger:   logger,
	}
}

func (l *ByLocation) Name() string {
	return "by_location"
}

func (l *ByLocation) CustomKey(
	ctx context.Context,
	interaction *domain.Interaction,
	event domain.Event,
	eventType domain.EmailEventType,
) (string, bool) {
	loc, ok := l.location(ctx, interaction, event)
	if !ok {
		return "", false
	}
	if !loc.Complete() {
		metrics.DimensionsSkipped.WithLabelValues("incomplete_location").Inc()
		l.logger.Debug().
			Str("interaction", interaction.ID.String()).
			Str("event", event.ID.String()).
			Msg("location is incomplete, event skipped")
		return "", false
	}

	b := &KeyBuilder{}
	return b.Add(strconv.Itoa(int(eventType))).
		Add(loc.Country).
		Add(loc.Region).
		Add(loc.City).
		String(), true
}

func (l *ByLocation) location(
	ctx context.Context,
	interaction *domain.Interaction,
	event domain.Event,
) (domain.LocationInfo, bool) {
	info := interaction.IPInfo
	if info == nil {
		metrics.DimensionsSkipped.WithLabelValues("no_ip_info").Inc()
		l.logger.Debug().Str("interaction", interaction.ID.String()).Msg("interaction has no ip info")
		return domain.LocationInfo{}, false
	}

	switch event.Kind {
	case domain.KindEmailClicked, domain.KindUnsubscribedFromEmail:
		return info.Location(), true
	case domain.KindEmailOpened:
		if info.IPAddress == "" {
			metrics.DimensionsSkipped.WithLabelValues("no_ip_address").Inc()
			l.logger.Debug().Str("interaction", interaction.ID.String()).Msg("open without ip address")
			return domain.LocationInfo{}, false
		}

		loc, err := l.resolver.Resolve(ctx, info.IPAddress)
		if err != nil {
			metrics.DimensionsSkipped.WithLabelValues("lookup_failed").Inc()
			l.logger.Warn().Err(err).
				Str("interaction", interaction.ID.String()).
				Msg("cannot lookup location for interaction")
			return domain.LocationInfo{}, false
		}
		if loc == nil {
			metrics.DimensionsSkipped.WithLabelValues("location_not_found").Inc()
			return domain.LocationInfo{}, false
		}
		return *loc, true
	default:
		return domain.LocationInfo{}, false
	}
}
