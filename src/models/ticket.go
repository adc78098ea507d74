package models

import "tixd/src/types"

// TicketClass is a named tier with a price and a pool of seats. Quantity and
// Status are derived fields, owned by the aggregator recompute; nothing else
// may write them directly.
type TicketClass struct {
	ID       uint                    `gorm:"primarykey" json:"id"`
	EventID  uint                    `gorm:"uniqueIndex:idx_event_type" json:"event_id,omitempty"`
	Type     string                  `gorm:"uniqueIndex:idx_event_type" json:"type,omitempty"`
	Price    float32                 `json:"price"`
	Currency string                  `gorm:"default:'usd'" json:"currency,omitempty"`
	Quantity uint                    `json:"quantity"`
	Status   types.TicketClassStatus `gorm:"default:'available'" json:"status,omitempty"`

	Event Event  `json:"event,omitempty"`
	Seats []Seat `json:"seats,omitempty"`

	types.Timestamps
}
