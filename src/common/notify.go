package common

import (
	"fmt"
	"log"
	"os"

	"tixd/src/db"
	"tixd/src/lib"
	"tixd/src/models"
	"tixd/src/types"
)

const OrderEventsTopic = "order-events"

type OrderEventKind string

const (
	ORDER_EVENT_CREATED   OrderEventKind = "order.created"
	ORDER_EVENT_PAID      OrderEventKind = "order.paid"
	ORDER_EVENT_CANCELLED OrderEventKind = "order.cancelled"
	ORDER_EVENT_FAILED    OrderEventKind = "order.failed"
	ORDER_EVENT_REMINDER  OrderEventKind = "order.reminder"
)

func subjectFor(kind OrderEventKind) string {
	switch kind {
	case ORDER_EVENT_PAID:
		return "Your tickets are confirmed"
	case ORDER_EVENT_CANCELLED, ORDER_EVENT_FAILED:
		return "Your reservation was cancelled"
	case ORDER_EVENT_REMINDER:
		return "Payment reminder for your reservation"
	}
	return "Your reservation was received"
}

// NotifyOrderEvent publishes an order lifecycle event to kafka and mails the
// buyer. Fire-and-forget: every failure here is logged and swallowed, the
// order and seat state stay authoritative whether or not the buyer hears
// about them.
func NotifyOrderEvent(orderID uint, kind OrderEventKind, reason string) {
	gdb := db.GetDb()
	var order models.Order
	if err := gdb.
		Where(&models.Order{ID: orderID}).
		Preload("Buyer").
		Preload("Occurrence.Event").
		First(&order).
		Error; err != nil {
		log.Printf("[notify] Could not load order %d: %s\n", orderID, err.Error())
		return
	}

	payload := types.JSONB{
		"kind":     string(kind),
		"order_id": order.ID,
		"buyer_id": order.BuyerID,
		"status":   string(order.Status),
		"total":    order.TotalAmount,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	if err := lib.KafkaProduceMessage("order_events_producer", OrderEventsTopic, payload); err != nil {
		log.Printf("[notify] Error producing %s for order %d: %s\n", kind, order.ID, err.Error())
	}

	if order.Buyer == nil || order.Buyer.Email == "" {
		log.Printf("[notify] No buyer email for order %d, skipping mail\n", order.ID)
		return
	}
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Order <b>#%d</b> for <b>%s</b>: %s.</p>
		<p>Total: %.2f %s</p>
		<p>This is a system-generated message. Do not reply to this email.</p>
		`,
		order.Buyer.Name,
		order.ID,
		order.Occurrence.Event.Title,
		mailLine(kind, reason),
		order.TotalAmount,
		order.Currency,
	)
	input := &lib.SendMailInput{
		Subject:  subjectFor(kind),
		From:     os.Getenv("SMTP_FROM"),
		FromName: "noreply",
		To:       []string{order.Buyer.Email},
		Body:     body,
		Html:     true,
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[notify] Error sending mail for order %d: %s\n", order.ID, err.Error())
	}
}

func mailLine(kind OrderEventKind, reason string) string {
	if reason != "" {
		return reason
	}
	switch kind {
	case ORDER_EVENT_PAID:
		return "payment received, your seats are sold to you"
	case ORDER_EVENT_CREATED:
		return "seats reserved, complete payment to confirm"
	}
	return string(kind)
}
