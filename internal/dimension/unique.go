package dimension

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

// isUniqueEvent reports whether event is the first of its kind recorded for
// the contact. Hits are memoized in the shared cache.
func (a *Aggregator) isUniqueEvent(
	ctx context.Context,
	contactID uuid.UUID,
	event domain.Event,
	eventType domain.EmailEventType,
) (bool, error) {
	if contactID == uuid.Nil {
		return false, nil
	}

	key := domain.UniqueEventKey{
		ContactID:  contactID,
		MessageID:  event.MessageID,
		InstanceID: event.InstanceID,
		EventType:  eventType,
		EventID:    event.ID,
	}

	hit, err := a.cache.HasUniqueEvent(ctx, key)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key.String()).Msg("unique event cache read failed")
	}
	if hit {
		return true, nil
	}

	contact, err := a.contact(ctx, contactID)
	if err != nil {
		return false, err
	}
	if contact == nil {
		return false, nil
	}

	expected, ok := contact.KeyBehavior.UniqueEvent(event.MessageID, event.InstanceID, eventType)
	if !ok || expected != event.ID {
		return false, nil
	}

	if err = a.cache.SetUniqueEvent(ctx, key); err != nil {
		a.logger.Warn().Err(err).Str("key", key.String()).Msg("unique event cache write failed")
	}
	return true, nil
}

func (a *Aggregator) contact(ctx context.Context, contactID uuid.UUID) (*domain.Contact, error) {
	var contact *domain.Contact
	err := a.retrier.Do(ctx, "get_contact", func(ctx context.Context) error {
		c, err := a.contacts.Get(ctx, contactID, domain.KeyBehaviorFacetKey)
		if err != nil {
			return err
		}
		contact = c
		return nil
	}, a.isTransient)
	if err != nil {
		return nil, fmt.Errorf("fetch contact %s: %w", contactID, err)
	}
	return contact, nil
}
