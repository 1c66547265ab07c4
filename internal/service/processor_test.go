package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/worker"
)

type poolStub struct {
	started   bool
	processed []domain.EmailOpened
}

func (p *poolStub) Start(worker.ExecuteFn) { p.started = true }

func (p *poolStub) GracefulStop() {}

func (p *poolStub) Process(payload domain.EmailOpened) {
	p.processed = append(p.processed, payload)
}

type dimensionsStub struct {
	results []domain.DimensionResult
	calls   int
}

func (d *dimensionsStub) Dimensions(_ context.Context, _ *domain.Interaction) []domain.DimensionResult {
	d.calls++
	return d.results
}

func (d *dimensionsStub) ComputeDimensions(_ context.Context, _ *domain.Interaction) ([]domain.DimensionResult, error) {
	d.calls++
	return d.results, nil
}

type dimensionStoreStub struct {
	stored map[uuid.UUID][]domain.DimensionResult
	err    error
}

func (d *dimensionStoreStub) StoreDimensions(_ context.Context, id uuid.UUID, results []domain.DimensionResult) error {
	if d.err != nil {
		return d.err
	}
	d.stored[id] = results
	return nil
}

func newService(store *writeStoreStub, dims *dimensionsStub, dimStore *dimensionStoreStub) (*Service, *poolStub) {
	pool := &poolStub{}
	saver := newSaver(store, &resolverStub{})
	return New(pool, saver, dims, dimStore, zerolog.Nop()), pool
}

func TestService_Enqueue(t *testing.T) {
	svc, pool := newService(&writeStoreStub{}, &dimensionsStub{}, &dimensionStoreStub{})
	require.True(t, pool.started)

	require.NoError(t, svc.Enqueue(newEmailOpened()))
	require.Len(t, pool.processed, 1)

	args := newEmailOpened()
	args.Interaction = nil
	require.ErrorIs(t, svc.Enqueue(args), domain.ErrInvalidArgument)
	require.Len(t, pool.processed, 1)
}

func TestService_Handle(t *testing.T) {
	results := []domain.DimensionResult{{Key: "k", Metrics: domain.MetricsBundle{Visits: 1, PageViews: 1, Bounces: 1}}}

	t.Run("ok", func(t *testing.T) {
		store := &writeStoreStub{}
		dims := &dimensionsStub{results: results}
		dimStore := &dimensionStoreStub{stored: map[uuid.UUID][]domain.DimensionResult{}}
		svc, _ := newService(store, dims, dimStore)

		args := newEmailOpened()
		require.NoError(t, svc.Handle(context.Background(), args))
		require.Equal(t, 1, store.calls)
		require.Equal(t, results, dimStore.stored[args.Interaction.ID])
	})

	t.Run("excluded from reports", func(t *testing.T) {
		store := &writeStoreStub{}
		dims := &dimensionsStub{results: results}
		dimStore := &dimensionStoreStub{stored: map[uuid.UUID][]domain.DimensionResult{}}
		svc, _ := newService(store, dims, dimStore)

		args := newEmailOpened()
		args.MessageItem.ExcludeFromReports = true
		require.NoError(t, svc.Handle(context.Background(), args))
		require.Zero(t, store.calls)
		require.Zero(t, dims.calls)
		require.Empty(t, dimStore.stored)
	})

	t.Run("save failure", func(t *testing.T) {
		errFatal := errors.New("fatal")
		store := &writeStoreStub{results: []submitResult{{err: errFatal}}}
		dims := &dimensionsStub{results: results}
		svc, _ := newService(store, dims, &dimensionStoreStub{stored: map[uuid.UUID][]domain.DimensionResult{}})

		require.ErrorIs(t, svc.Handle(context.Background(), newEmailOpened()), errFatal)
		require.Zero(t, dims.calls)
	})

	t.Run("dimension store failure", func(t *testing.T) {
		errStore := errors.New("insert failed")
		svc, _ := newService(&writeStoreStub{}, &dimensionsStub{results: results}, &dimensionStoreStub{err: errStore})

		require.ErrorIs(t, svc.Handle(context.Background(), newEmailOpened()), errStore)
	})
}
