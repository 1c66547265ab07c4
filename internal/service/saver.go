package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/metrics"
)

type WriteStore interface {
	Submit(ctx context.Context, interaction *domain.Interaction, info domain.IPInfo) (domain.Batch, error)
}

type LocationResolver interface {
	Resolve(ctx context.Context, ipAddress string) (*domain.LocationInfo, error)
}

type Retrier interface {
	Do(ctx context.Context, op string, fn func(ctx context.Context) error, isTransient func(err error) bool) error
}

type TransientClassifier interface {
	IsTransient(err error, lastBatch domain.Batch) bool
}

// Saver persists interactions produced by email opens.
type Saver struct {
	store      WriteStore
	resolver   LocationResolver
	retrier    Retrier
	classifier TransientClassifier
	logger     zerolog.Logger
}

func NewSaver(
	store WriteStore,
	resolver LocationResolver,
	retrier Retrier,
	classifier TransientClassifier,
	logger zerolog.Logger,
) *Saver {
	return &Saver{
		store:      store,
		resolver:   resolver,
		retrier:    retrier,
		classifier: classifier,
		logger:     logger.With().Str("Service", "SaveInteraction").Logger(),
	}
}

func validate(args domain.EmailOpened) error {
	switch {
	case args.MessageItem == nil:
		return fmt.Errorf("%w: message item not set", domain.ErrInvalidArgument)
	case args.Interaction == nil:
		return fmt.Errorf("%w: interaction not set", domain.ErrInvalidArgument)
	case args.ChannelID == uuid.Nil:
		return fmt.Errorf("%w: channel id not set", domain.ErrInvalidArgument)
	}
	return nil
}

// Save appends the events to the interaction and submits it together with
// the located ip info. Interactions of messages excluded from reports are
// not saved.
func (s *Saver) Save(ctx context.Context, args domain.EmailOpened) error {
	if err := validate(args); err != nil {
		return err
	}

	in := args.Interaction
	if args.MessageItem.ExcludeFromReports {
		metrics.InteractionsSaved.WithLabelValues("excluded").Inc()
		s.logger.Debug().
			Str("message", args.MessageItem.ID.String()).
			Msg("interaction not saved as message has been excluded from reports")
		return nil
	}

	in.ChannelID = args.ChannelID
	in.Events = append(in.Events, args.Events...)

	info := domain.IPInfo{IPAddress: args.IPAddress}
	s.populateLocation(ctx, &info, in.ID)
	in.IPInfo = &info

	var lastBatch domain.Batch
	err := s.retrier.Do(ctx, "save_interaction", func(ctx context.Context) error {
		batch, err := s.store.Submit(ctx, in, info)
		lastBatch = batch
		return err
	}, func(err error) bool {
		return s.classifier.IsTransient(err, lastBatch)
	})
	if err != nil {
		metrics.InteractionsSaved.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).
			Str("campaign", in.CampaignID.String()).
			Msg("failed to create interaction for campaign")
		return err
	}

	metrics.InteractionsSaved.WithLabelValues("saved").Inc()
	return nil
}

func (s *Saver) populateLocation(ctx context.Context, info *domain.IPInfo, interactionID uuid.UUID) {
	if info.IPAddress == "" {
		return
	}
	loc, err := s.resolver.Resolve(ctx, info.IPAddress)
	if err != nil {
		s.logger.Error().Err(err).
			Str("interaction", interactionID.String()).
			Msg("cannot lookup location for interaction")
		return
	}
	if loc != nil {
		info.SetLocation(*loc)
	}
}
