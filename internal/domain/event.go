package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	KindEmailOpened           EventKind = "email_opened"
	KindEmailClicked          EventKind = "email_clicked"
	KindUnsubscribedFromEmail EventKind = "unsubscribed_from_email"
	KindPageView              EventKind = "page_view"
	KindGoal                  EventKind = "goal"
)

// Event is a single entry of an interaction timeline. Email fields are only
// meaningful for the email kinds, Duration only for page views.
type Event struct {
	Kind            EventKind     `json:"kind"`
	ID              uuid.UUID     `json:"id"`
	ParentEventID   uuid.UUID     `json:"parent_event_id"`
	DefinitionID    uuid.UUID     `json:"definition_id"`
	Timestamp       time.Time     `json:"timestamp"`
	EngagementValue int           `json:"engagement_value"`
	Duration        time.Duration `json:"duration"`

	MessageID     uuid.UUID `json:"message_id"`
	InstanceID    uuid.UUID `json:"instance_id"`
	ManagerRootID uuid.UUID `json:"manager_root_id"`
}

func (e Event) IsEmail() bool {
	switch e.Kind {
	case KindEmailOpened, KindEmailClicked, KindUnsubscribedFromEmail:
		return true
	default:
		return false
	}
}

func (e Event) HasParent() bool {
	return e.ParentEventID != uuid.Nil
}

// EmailEventType ordinals are part of the dimension key and must stay stable.
type EmailEventType int

const (
	EmailEventUnknown EmailEventType = iota
	EmailEventOpen
	EmailEventClick
	EmailEventUnsubscribe
	EmailEventUnsubscribeFromAll
	EmailEventBounce
	EmailEventSpamComplaint
	EmailEventSent
)

func (t EmailEventType) String() string {
	switch t {
	case EmailEventOpen:
		return "open"
	case EmailEventClick:
		return "click"
	case EmailEventUnsubscribe:
		return "unsubscribe"
	case EmailEventUnsubscribeFromAll:
		return "unsubscribe_from_all"
	case EmailEventBounce:
		return "bounce"
	case EmailEventSpamComplaint:
		return "spam_complaint"
	case EmailEventSent:
		return "sent"
	default:
		return "unknown"
	}
}

// Well-known event definition ids.
var (
	DefinitionEmailOpened        = uuid.MustParse("3a2b2e8c-2f4e-4a73-9b0d-6f1c5e0a7d11")
	DefinitionEmailClicked       = uuid.MustParse("9c1d4f3a-7b2e-4c56-8a1f-2d3e4b5c6a22")
	DefinitionUnsubscribed       = uuid.MustParse("5e6f7a8b-1c2d-4e3f-9a0b-7c8d9e0f1a33")
	DefinitionUnsubscribedAll    = uuid.MustParse("b4c5d6e7-8f90-4a1b-8c2d-3e4f5a6b7c44")
	DefinitionEmailBounced       = uuid.MustParse("d7e8f9a0-b1c2-4d3e-9f4a-5b6c7d8e9f55")
	DefinitionSpamComplaint      = uuid.MustParse("e1f2a3b4-c5d6-4e7f-8a9b-0c1d2e3f4a66")
	DefinitionEmailSent          = uuid.MustParse("f0a1b2c3-d4e5-4f6a-9b7c-8d9e0f1a2b77")
	emailEventTypeByDefinitionID = map[uuid.UUID]EmailEventType{
		DefinitionEmailOpened:     EmailEventOpen,
		DefinitionEmailClicked:    EmailEventClick,
		DefinitionUnsubscribed:    EmailEventUnsubscribe,
		DefinitionUnsubscribedAll: EmailEventUnsubscribeFromAll,
		DefinitionEmailBounced:    EmailEventBounce,
		DefinitionSpamComplaint:   EmailEventSpamComplaint,
		DefinitionEmailSent:       EmailEventSent,
	}
)

// ParseEmailEventType classifies an email event by its definition id and
// falls back to the event kind for unknown definitions.
func ParseEmailEventType(e Event) EmailEventType {
	if t, ok := emailEventTypeByDefinitionID[e.DefinitionID]; ok {
		return t
	}
	switch e.Kind {
	case KindEmailOpened:
		return EmailEventOpen
	case KindEmailClicked:
		return EmailEventClick
	case KindUnsubscribedFromEmail:
		return EmailEventUnsubscribe
	default:
		return EmailEventUnknown
	}
}
