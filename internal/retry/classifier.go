package retry

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/metrics"
)

// Classifier decides whether a failed write against the remote store is
// worth another attempt.
type Classifier struct {
	operation string
	logger    zerolog.Logger
}

func NewClassifier(operation string, logger zerolog.Logger) *Classifier {
	return &Classifier{
		operation: operation,
		logger:    logger,
	}
}

// IsTransient reports true when the store was unavailable or any operation of
// the last attempted batch failed.
func (c *Classifier) IsTransient(err error, lastBatch domain.Batch) bool {
	if errors.Is(err, domain.ErrStoreUnavailable) || lastBatch.HasFailed() {
		metrics.StoreAttempts.WithLabelValues(c.operation, "transient").Inc()
		c.logger.Warn().
			Err(err).
			Str("operation", c.operation).
			Strs("failed_operations", lastBatch.Failed()).
			Msg("Transient error.")
		return true
	}

	metrics.StoreAttempts.WithLabelValues(c.operation, "fatal").Inc()
	c.logger.Error().
		Err(err).
		Str("operation", c.operation).
		Msg("Not a transient error.")
	return false
}

// Unavailable classifies only store unavailability as transient. It is used
// for reads, which carry no batch.
func (c *Classifier) Unavailable(err error) bool {
	return c.IsTransient(err, nil)
}
