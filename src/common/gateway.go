package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tixd/src/config"
	"tixd/src/db"
	"tixd/src/lib"
	"tixd/src/models"
	"tixd/src/types"

	"github.com/stripe/stripe-go/v82"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

type CallbackResult struct {
	EventID string
	OrderID uint
	Success bool
}

type callbackEvent struct {
	EventID   string
	SessionID string
	Reference string
	Paid      bool
}

// parseCallback pulls the interesting fields out of a gateway webhook body.
// The payload is treated as untrusted input; anything missing is ErrInvalid.
func parseCallback(payload []byte) (*callbackEvent, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: callback payload is not valid json", ErrInvalid)
	}
	body := gjson.ParseBytes(payload)
	object := body.Get("data.object")
	if !object.Exists() {
		return nil, fmt.Errorf("%w: callback payload has no data object", ErrInvalid)
	}
	reference := object.Get("metadata.reference").String()
	if reference == "" {
		return nil, fmt.Errorf("%w: callback payload has no payment reference", ErrInvalid)
	}
	return &callbackEvent{
		EventID:   body.Get("id").String(),
		SessionID: object.Get("id").String(),
		Reference: reference,
		Paid:      object.Get("payment_status").String() == "paid",
	}, nil
}

// VerifyCallback resolves a gateway callback to {orderID, success}. The
// session is re-read from the gateway rather than trusting the payload, and
// redis dedupes redelivered events. The caller feeds the result into
// UpdateOrderStatus.
func VerifyCallback(payload []byte) (*CallbackResult, error) {
	event, err := parseCallback(payload)
	if err != nil {
		return nil, err
	}

	if rd := lib.GetRedisClient(); rd != nil && event.EventID != "" {
		ok, err := rd.SetNX(context.Background(), callbackDedupeKey(event.EventID), 1, 24*time.Hour).Result()
		if err != nil {
			log.Printf("[gateway] Error deduping callback %s: %s\n", event.EventID, err.Error())
		} else if !ok {
			return nil, fmt.Errorf("%w: callback %s already processed", ErrConflict, event.EventID)
		}
	}

	paid := event.Paid
	if config.API_ENV != "local" && event.SessionID != "" {
		session, err := lib.RetrieveCheckoutSession(event.SessionID)
		if err != nil {
			log.Printf("[gateway] Error verifying session %s: %s\n", event.SessionID, err.Error())
			return nil, err
		}
		paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	}

	gdb := db.GetDb()
	var payment models.Payment
	if err := gdb.
		Where(&models.Payment{Reference: event.Reference}).
		First(&payment).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment reference %s", ErrNotFound, event.Reference)
		}
		return nil, err
	}
	return &CallbackResult{EventID: event.EventID, OrderID: payment.OrderID, Success: paid}, nil
}

func callbackDedupeKey(eventID string) string {
	return fmt.Sprintf("callback:%s", eventID)
}

// ReleaseCallback drops the dedupe marker for an event. Callers that fail to
// apply a verified callback must release it, otherwise the gateway's next
// redelivery would be acked as a duplicate and the payment lost.
func ReleaseCallback(eventID string) {
	if eventID == "" {
		return
	}
	lib.CacheInvalidate(context.Background(), callbackDedupeKey(eventID))
}

// CreateCheckout opens a hosted checkout session for a pending order and
// stores the session id on the payment record.
func CreateCheckout(orderID uint) (string, error) {
	order, err := GetOrder(orderID)
	if err != nil {
		return "", err
	}
	if order.Status != types.ORDER_PENDING {
		return "", fmt.Errorf("%w: order %d is not payable", ErrConflict, orderID)
	}
	if order.Payment == nil {
		return "", fmt.Errorf("%w: order %d has no payment record", ErrNotFound, orderID)
	}
	lines := make([]lib.CheckoutLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, lib.CheckoutLine{
			Name:      fmt.Sprintf("Seat %s", line.Seat.Label()),
			UnitPrice: line.UnitPrice,
			Currency:  order.Currency,
		})
	}
	session, err := lib.CreateCheckoutSession(order.Payment.Reference, lines)
	if err != nil {
		log.Printf("[gateway] Error creating checkout for order %d: %s\n", orderID, err.Error())
		return "", err
	}
	gdb := db.GetDb()
	if err := gdb.
		Model(&models.Payment{}).
		Where(&models.Payment{ID: order.Payment.ID}).
		Update("checkout_session_id", session.ID).
		Error; err != nil {
		return "", err
	}
	return session.URL, nil
}
