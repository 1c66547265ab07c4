package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

const (
	opAddInteraction = "add_interaction"
	opAddEvents      = "add_events"
	opSetIPInfo      = "set_ip_info"
)

// Submit writes the interaction, its events and its ip info. The returned
// batch reports the status of every operation of this attempt.
func (c *Clickhouse) Submit(ctx context.Context, in *domain.Interaction, info domain.IPInfo) (domain.Batch, error) {
	batch := domain.Batch{
		{Name: opAddInteraction, Status: domain.OperationPending},
		{Name: opAddEvents, Status: domain.OperationPending},
		{Name: opSetIPInfo, Status: domain.OperationPending},
	}

	if err := c.conn.Ping(ctx); err != nil {
		return batch, fmt.Errorf("ping: %w", storeErr(err))
	}

	ops := []func(ctx context.Context) error{
		func(ctx context.Context) error {
			row := interactionFromService(in, time.Now())
			return c.insert(ctx, `INSERT INTO interactions`, &row)
		},
		func(ctx context.Context) error {
			events := eventsFromService(in)
			rows := make([]any, len(events))
			for i := range events {
				rows[i] = &events[i]
			}
			return c.insert(ctx, `INSERT INTO interaction_events`, rows...)
		},
		func(ctx context.Context) error {
			row := ipInfoFromService(in.ID, info)
			return c.insert(ctx, `INSERT INTO interaction_ip_info`, &row)
		},
	}

	for i, op := range ops {
		if err := op(ctx); err != nil {
			batch[i].Status = domain.OperationFailed
			batch[i].Err = err
			return batch, fmt.Errorf("%s: %w: %w", batch[i].Name, domain.ErrBatchFailed, storeErr(err))
		}
		batch[i].Status = domain.OperationSucceeded
	}
	return batch, nil
}

func (c *Clickhouse) StoreDimensions(ctx context.Context, interactionID uuid.UUID, results []domain.DimensionResult) error {
	if len(results) == 0 {
		return nil
	}
	dims := dimensionsFromService(interactionID, results, time.Now())
	rows := make([]any, len(dims))
	for i := range dims {
		rows[i] = &dims[i]
	}
	return storeErr(c.insert(ctx, `INSERT INTO dimensions`, rows...))
}

func (c *Clickhouse) insert(ctx context.Context, query string, rows ...any) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	for i := 0; i < len(rows); i++ {
		if errAppend := batch.AppendStruct(rows[i]); errAppend != nil {
			return errAppend
		}
	}
	return batch.Send()
}
