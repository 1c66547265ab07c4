package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type MetricsBundle struct {
	Visits      int `json:"visits"`
	PageViews   int `json:"page_views"`
	Bounces     int `json:"bounces"`
	Value       int `json:"value"`
	TimeOnSite  int `json:"time_on_site"`
	Conversions int `json:"conversions"`
	Count       int `json:"count"`
}

type DimensionResult struct {
	Key     string        `json:"key"`
	Metrics MetricsBundle `json:"metrics"`
}

// UniqueEventKey identifies a unique email event of a contact.
type UniqueEventKey struct {
	ContactID  uuid.UUID
	MessageID  uuid.UUID
	InstanceID uuid.UUID
	EventType  EmailEventType
	EventID    uuid.UUID
}

func (k UniqueEventKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", k.ContactID, k.MessageID, k.InstanceID, k.EventType, k.EventID)
}

type Contact struct {
	ID          uuid.UUID         `json:"id"`
	KeyBehavior *KeyBehaviorFacet `json:"exm_key_behavior_cache,omitempty"`
}

const KeyBehaviorFacetKey = "ExmKeyBehaviorCache"

// KeyBehaviorFacet records the first event id seen per message instance and
// event type.
type KeyBehaviorFacet struct {
	UniqueEvents map[string]uuid.UUID `json:"unique_events"`
}

func (f *KeyBehaviorFacet) UniqueEventKey(messageID, instanceID uuid.UUID, eventType EmailEventType) string {
	return fmt.Sprintf("%s_%s_%d", messageID, instanceID, eventType)
}

func (f *KeyBehaviorFacet) UniqueEvent(messageID, instanceID uuid.UUID, eventType EmailEventType) (uuid.UUID, bool) {
	if f == nil || f.UniqueEvents == nil {
		return uuid.Nil, false
	}
	id, ok := f.UniqueEvents[f.UniqueEventKey(messageID, instanceID, eventType)]
	return id, ok
}
