package domain

import (
	"github.com/google/uuid"
)

// IPInfo is the location metadata attached to an interaction.
type IPInfo struct {
	IPAddress string `json:"ip_address"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	City      string `json:"city"`
}

func (i *IPInfo) Location() LocationInfo {
	return LocationInfo{
		Country: i.Country,
		Region:  i.Region,
		City:    i.City,
	}
}

func (i *IPInfo) SetLocation(loc LocationInfo) {
	i.Country = loc.Country
	i.Region = loc.Region
	i.City = loc.City
}

type LocationInfo struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

func (l LocationInfo) Complete() bool {
	return l.Country != "" && l.Region != "" && l.City != ""
}

type Interaction struct {
	ID         uuid.UUID `json:"id"`
	ContactID  uuid.UUID `json:"contact_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	ChannelID  uuid.UUID `json:"channel_id"`
	IPInfo     *IPInfo   `json:"ip_info,omitempty"`
	Events     []Event   `json:"events"`
}

func (i *Interaction) HasContact() bool {
	return i.ContactID != uuid.Nil
}

// EmailEvents returns the email events in timeline order.
func (i *Interaction) EmailEvents() []Event {
	events := make([]Event, 0, len(i.Events))
	for _, e := range i.Events {
		if e.IsEmail() {
			events = append(events, e)
		}
	}
	return events
}

type MessageItem struct {
	ID                 uuid.UUID `json:"id"`
	ExcludeFromReports bool      `json:"exclude_from_reports"`
}

// EmailOpened is a request to persist an interaction produced by an email
// open together with the events collected for it.
type EmailOpened struct {
	MessageItem *MessageItem `json:"message_item"`
	Interaction *Interaction `json:"interaction"`
	ChannelID   uuid.UUID    `json:"channel_id"`
	Events      []Event      `json:"events"`
	IPAddress   string       `json:"ip_address"`
}

// Key is used as the queue partitioning key.
func (e EmailOpened) Key() string {
	if e.Interaction == nil {
		return ""
	}
	return e.Interaction.ID.String()
}
