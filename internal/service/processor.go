package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/worker"
)

type DimensionStore interface {
	StoreDimensions(ctx context.Context, interactionID uuid.UUID, results []domain.DimensionResult) error
}

type Dimensions interface {
	Dimensions(ctx context.Context, interaction *domain.Interaction) []domain.DimensionResult
	ComputeDimensions(ctx context.Context, interaction *domain.Interaction) ([]domain.DimensionResult, error)
}

type Interaction interface {
	Enqueue(args domain.EmailOpened) error
	ComputeDimensions(ctx context.Context, interaction *domain.Interaction) ([]domain.DimensionResult, error)
}

type Service struct {
	pool       worker.WorkerPool
	saver      *Saver
	dimensions Dimensions
	storage    DimensionStore
	logger     zerolog.Logger
}

func New(
	pool worker.WorkerPool,
	saver *Saver,
	dimensions Dimensions,
	storage DimensionStore,
	logger zerolog.Logger,
) *Service {
	s := &Service{
		pool:       pool,
		saver:      saver,
		dimensions: dimensions,
		storage:    storage,
		logger:     logger,
	}
	pool.Start(s.Handle)
	return s
}

// Enqueue validates the request and hands it over to the worker pool.
func (s *Service) Enqueue(args domain.EmailOpened) error {
	if err := validate(args); err != nil {
		return err
	}
	s.pool.Process(args)
	return nil
}

func (s *Service) ComputeDimensions(ctx context.Context, interaction *domain.Interaction) ([]domain.DimensionResult, error) {
	return s.dimensions.ComputeDimensions(ctx, interaction)
}

// Handle saves one interaction and stores the dimensions computed for it.
func (s *Service) Handle(ctx context.Context, args domain.EmailOpened) error {
	if err := s.saver.Save(ctx, args); err != nil {
		return err
	}
	if args.MessageItem.ExcludeFromReports {
		return nil
	}

	results := s.dimensions.Dimensions(ctx, args.Interaction)
	if err := s.storage.StoreDimensions(ctx, args.Interaction.ID, results); err != nil {
		return fmt.Errorf("store dimensions: %w", err)
	}
	s.logger.Debug().
		Str("interaction", args.Interaction.ID.String()).
		Int("dimensions", len(results)).
		Msg("interaction processed")
	return nil
}
