package models

import (
	"time"

	"tixd/src/types"
)

// Event and EventOccurrence are read-only configuration as far as the order
// engine is concerned. They are owned by the CRUD layer.
type Event struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Title    string `json:"title,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`

	TicketClasses []TicketClass     `json:"ticket_classes,omitempty"`
	Occurrences   []EventOccurrence `json:"occurrences,omitempty"`

	types.Timestamps
}

type EventOccurrence struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	EventID  uint      `json:"event_id,omitempty"`
	StartsAt time.Time `json:"starts_at,omitempty"`
	Location string    `json:"location,omitempty"`

	Event Event `json:"event,omitempty"`

	types.Timestamps
}
