package clickhouse

import (
	"time"

	"github.com/google/uuid"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

type interaction struct {
	ID         uuid.UUID `ch:"id"`
	ContactID  uuid.UUID `ch:"contact_id"`
	CampaignID uuid.UUID `ch:"campaign_id"`
	ChannelID  uuid.UUID `ch:"channel_id"`
	SavedAt    time.Time `ch:"saved_at"`
}

type event struct {
	InteractionID   uuid.UUID `ch:"interaction_id"`
	ID              uuid.UUID `ch:"id"`
	Kind            string    `ch:"kind"`
	ParentEventID   uuid.UUID `ch:"parent_event_id"`
	DefinitionID    uuid.UUID `ch:"definition_id"`
	Timestamp       time.Time `ch:"timestamp"`
	EngagementValue int32     `ch:"engagement_value"`
	DurationMs      int64     `ch:"duration_ms"`
	MessageID       uuid.UUID `ch:"message_id"`
	InstanceID      uuid.UUID `ch:"instance_id"`
	ManagerRootID   uuid.UUID `ch:"manager_root_id"`
}

type ipInfo struct {
	InteractionID uuid.UUID `ch:"interaction_id"`
	IP            string    `ch:"ip"`
	Country       string    `ch:"country"`
	Region        string    `ch:"region"`
	City          string    `ch:"city"`
}

type dimension struct {
	InteractionID uuid.UUID `ch:"interaction_id"`
	Key           string    `ch:"dimension_key"`
	Visits        int32     `ch:"visits"`
	PageViews     int32     `ch:"page_views"`
	Bounces       int32     `ch:"bounces"`
	Value         int64     `ch:"value"`
	TimeOnSite    int64     `ch:"time_on_site"`
	Conversions   int32     `ch:"conversions"`
	Count         int32     `ch:"count"`
	ComputedAt    time.Time `ch:"computed_at"`
}

func interactionFromService(in *domain.Interaction, savedAt time.Time) interaction {
	return interaction{
		ID:         in.ID,
		ContactID:  in.ContactID,
		CampaignID: in.CampaignID,
		ChannelID:  in.ChannelID,
		SavedAt:    savedAt,
	}
}

func eventsFromService(in *domain.Interaction) []event {
	events := make([]event, len(in.Events))
	for i := 0; i < len(events); i++ {
		e := in.Events[i]
		events[i] = event{
			InteractionID:   in.ID,
			ID:              e.ID,
			Kind:            string(e.Kind),
			ParentEventID:   e.ParentEventID,
			DefinitionID:    e.DefinitionID,
			Timestamp:       e.Timestamp,
			EngagementValue: int32(e.EngagementValue),
			DurationMs:      e.Duration.Milliseconds(),
			MessageID:       e.MessageID,
			InstanceID:      e.InstanceID,
			ManagerRootID:   e.ManagerRootID,
		}
	}
	return events
}

func ipInfoFromService(interactionID uuid.UUID, info domain.IPInfo) ipInfo {
	return ipInfo{
		InteractionID: interactionID,
		IP:            info.IPAddress,
		Country:       info.Country,
		Region:        info.Region,
		City:          info.City,
	}
}

func dimensionsFromService(interactionID uuid.UUID, results []domain.DimensionResult, computedAt time.Time) []dimension {
	dims := make([]dimension, len(results))
	for i := 0; i < len(dims); i++ {
		m := results[i].Metrics
		dims[i] = dimension{
			InteractionID: interactionID,
			Key:           results[i].Key,
			Visits:        int32(m.Visits),
			PageViews:     int32(m.PageViews),
			Bounces:       int32(m.Bounces),
			Value:         int64(m.Value),
			TimeOnSite:    int64(m.TimeOnSite),
			Conversions:   int32(m.Conversions),
			Count:         int32(m.Count),
			ComputedAt:    computedAt,
		}
	}
	return dims
}
