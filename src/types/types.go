package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type OrderStatus string

const (
	ORDER_PENDING   OrderStatus = "pending"
	ORDER_PAID      OrderStatus = "paid"
	ORDER_CANCELLED OrderStatus = "cancelled"
	ORDER_FAILED    OrderStatus = "failed"
)

type SeatState string

const (
	SEAT_AVAILABLE SeatState = "available"
	SEAT_HELD      SeatState = "held"
	SEAT_BOOKED    SeatState = "booked"
	SEAT_SOLD      SeatState = "sold"
)

type TicketClassStatus string

const (
	TICKET_AVAILABLE TicketClassStatus = "available"
	TICKET_LIMITED   TicketClassStatus = "limited"
	TICKET_SOLD_OUT  TicketClassStatus = "sold_out"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_SUCCEEDED PaymentStatus = "succeeded"
	PAYMENT_FAILED    PaymentStatus = "failed"
)

type OrderLineItem struct {
	TicketClassID uint `json:"ticket" binding:"required"`
	SeatID        uint `json:"seat" binding:"required"`
}

type CreateOrderRequestBody struct {
	OccurrenceID uint            `json:"occurrence" binding:"required"`
	Items        []OrderLineItem `json:"items" binding:"required,min=1,uniqueseats"`
	GiftID       *uint           `json:"gift,omitempty"`
}

type ResizeTicketClassRequestBody struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}
