package models

import (
	"tixd/src/types"

	"github.com/google/uuid"
)

// Payment is the order's gateway record. Reference travels to the gateway as
// checkout metadata and is how callbacks find their way back to the order.
type Payment struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	OrderID           uint                `json:"order_id,omitempty"`
	Reference         string              `gorm:"uniqueIndex" json:"reference,omitempty"`
	Provider          string              `gorm:"default:'stripe'" json:"provider,omitempty"`
	CheckoutSessionID *string             `json:"-"`
	Amount            float64             `json:"amount"`
	Currency          string              `json:"currency,omitempty"`
	Status            types.PaymentStatus `gorm:"default:'pending'" json:"status,omitempty"`

	Order Order `json:"-"`

	types.Timestamps
}
