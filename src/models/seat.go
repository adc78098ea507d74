package models

import (
	"fmt"
	"time"

	"tixd/src/types"
)

// Seat identity is immutable. Resizing a ticket class creates or deletes
// seats, it never reassigns an existing seat to another class.
type Seat struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	EventID       uint   `json:"event_id,omitempty"`
	TicketClassID uint   `json:"ticket_class_id,omitempty"`
	Zone          string `json:"zone,omitempty"`
	Row           uint   `gorm:"column:row_no" json:"row"`
	Number        uint   `gorm:"column:seat_no" json:"number"`

	Event       Event       `json:"-"`
	TicketClass TicketClass `json:"ticket_class,omitempty"`

	types.Timestamps
}

func (s Seat) Label() string {
	if s.Zone != "" {
		return fmt.Sprintf("%s-%d-%d", s.Zone, s.Row, s.Number)
	}
	return fmt.Sprintf("%d-%d", s.Row, s.Number)
}

// SeatStatus is the per (seat, occurrence) availability record. Rows are
// created lazily on the first reservation attempt; a missing row means
// available. Written only by the order engine and the resize path.
type SeatStatus struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	SeatID       uint            `gorm:"uniqueIndex:idx_seat_occurrence" json:"seat_id,omitempty"`
	OccurrenceID uint            `gorm:"uniqueIndex:idx_seat_occurrence" json:"occurrence_id,omitempty"`
	Status       types.SeatState `gorm:"default:'available'" json:"status,omitempty"`
	HolderID     *uint           `json:"holder_id,omitempty"`
	HoldUntil    *time.Time      `json:"hold_until,omitempty"`

	Seat       Seat            `json:"seat,omitempty"`
	Occurrence EventOccurrence `gorm:"foreignKey:occurrence_id" json:"-"`

	types.Timestamps
}
