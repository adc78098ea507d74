package models

import "tixd/src/types"

type Order struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	BuyerID      uint              `json:"buyer_id,omitempty"`
	OccurrenceID uint              `json:"occurrence_id,omitempty"`
	TotalAmount  float32           `json:"total_amount"`
	Currency     string            `gorm:"default:'usd'" json:"currency,omitempty"`
	Status       types.OrderStatus `gorm:"default:'pending'" json:"status,omitempty"`
	ReminderSent bool              `json:"reminder_sent"`
	GiftID       *uint             `json:"gift_id,omitempty"`

	Buyer      *User           `gorm:"foreignKey:buyer_id" json:"buyer,omitempty"`
	Occurrence EventOccurrence `gorm:"foreignKey:occurrence_id" json:"occurrence,omitempty"`
	Gift       *Gift           `json:"gift,omitempty"`
	Lines      []OrderLine     `json:"lines,omitempty"`
	Payment    *Payment        `json:"payment,omitempty"`

	types.Timestamps
}

// OrderLine binds exactly one seat to an order. Lines are immutable once
// created and are only removed together with their order.
type OrderLine struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	OrderID       uint    `json:"order_id,omitempty"`
	TicketClassID uint    `json:"ticket_class_id,omitempty"`
	SeatID        uint    `json:"seat_id,omitempty"`
	UnitPrice     float32 `json:"unit_price"`
	Qty           uint8   `gorm:"default:1" json:"qty"`

	TicketClass TicketClass `json:"ticket_class,omitempty"`
	Seat        Seat        `json:"seat,omitempty"`

	types.Timestamps
}
