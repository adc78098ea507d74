package common

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tixd/src/config"
	"tixd/src/db"
	"tixd/src/models"
	"tixd/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderStatusTerminal reports whether an order may transition any further.
// paid, cancelled and failed are all final.
func orderStatusTerminal(s types.OrderStatus) bool {
	switch s {
	case types.ORDER_PAID, types.ORDER_CANCELLED, types.ORDER_FAILED:
		return true
	}
	return false
}

// notifyOrderEvent is swappable so transition tests can silence the
// fire-and-forget side effects, like db.NewDB does for the connection.
var notifyOrderEvent = NotifyOrderEvent

// CreateOrder reserves every requested seat and persists the order, its lines
// and a pending payment record inside one transaction. The ticket class row
// lock is the serialization point: two buyers racing for the same seat meet
// there, and the loser re-reads a seat that is no longer available.
func CreateOrder(buyerID uint, occurrenceID uint, items []types.OrderLineItem, giftID *uint) (*models.Order, error) {
	// Struct conds drop zero-value fields, so a zero id must never reach a
	// Where clause.
	if buyerID == 0 || occurrenceID == 0 {
		return nil, fmt.Errorf("%w: buyer and occurrence are required", ErrInvalid)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one line item", ErrInvalid)
	}
	for _, item := range items {
		if item.TicketClassID == 0 || item.SeatID == 0 {
			return nil, fmt.Errorf("%w: every line item needs a ticket class and a seat", ErrInvalid)
		}
	}
	gdb := db.GetDb()
	var order models.Order
	var eventID uint
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var buyer models.User
		if err := tx.
			Where(&models.User{ID: buyerID}).
			First(&buyer).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: buyer %d", ErrNotFound, buyerID)
			}
			return err
		}
		var occ models.EventOccurrence
		if err := tx.
			Where(&models.EventOccurrence{ID: occurrenceID}).
			First(&occ).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: occurrence %d", ErrNotFound, occurrenceID)
			}
			return err
		}
		eventID = occ.EventID

		now := time.Now()
		holdUntil := now.Add(config.PaymentTimeout())
		var total float32
		lines := make([]models.OrderLine, 0, len(items))
		for _, item := range items {
			var class models.TicketClass
			if err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where(&models.TicketClass{ID: item.TicketClassID}).
				First(&class).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: ticket class %d", ErrNotFound, item.TicketClassID)
				}
				return err
			}
			if class.EventID != occ.EventID {
				return fmt.Errorf("%w: ticket class %d does not belong to event %d", ErrInvalid, class.ID, occ.EventID)
			}
			if class.Price <= 0 {
				return fmt.Errorf("%w: ticket class %d has a non-positive price", ErrInvalid, class.ID)
			}
			var seat models.Seat
			if err := tx.
				Where(&models.Seat{ID: item.SeatID, TicketClassID: class.ID}).
				First(&seat).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: seat %d in ticket class %d", ErrNotFound, item.SeatID, class.ID)
				}
				return err
			}

			var status models.SeatStatus
			err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where(&models.SeatStatus{SeatID: seat.ID, OccurrenceID: occ.ID}).
				First(&status).
				Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				status = models.SeatStatus{
					SeatID:       seat.ID,
					OccurrenceID: occ.ID,
					Status:       types.SEAT_HELD,
					HolderID:     &buyer.ID,
					HoldUntil:    &holdUntil,
				}
				if err := tx.Create(&status).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			} else {
				if status.Status != types.SEAT_AVAILABLE {
					return fmt.Errorf("%w: seat %s is no longer available", ErrConflict, seat.Label())
				}
				if err := tx.
					Model(&models.SeatStatus{}).
					Where(&models.SeatStatus{ID: status.ID}).
					Updates(map[string]any{
						"status":     types.SEAT_BOOKED,
						"holder_id":  buyer.ID,
						"hold_until": holdUntil,
					}).
					Error; err != nil {
					return err
				}
			}

			// Eager decrement while the class row is locked. The recompute
			// below restores the true count; the decrement only blocks a
			// concurrent transaction from overselling in the meantime.
			if err := tx.
				Model(&models.TicketClass{}).
				Where(&models.TicketClass{ID: class.ID}).
				Update("quantity", gorm.Expr("quantity - ?", 1)).
				Error; err != nil {
				return err
			}

			lines = append(lines, models.OrderLine{
				TicketClassID: class.ID,
				SeatID:        seat.ID,
				UnitPrice:     class.Price,
				Qty:           1,
			})
			total += class.Price
		}

		order = models.Order{
			BuyerID:      buyer.ID,
			OccurrenceID: occ.ID,
			TotalAmount:  total,
			Currency:     "usd",
			Status:       types.ORDER_PENDING,
		}
		if giftID != nil {
			var gift models.Gift
			if err := tx.
				Where(&models.Gift{ID: *giftID, Active: true}).
				First(&gift).
				Error; err != nil {
				// Gifts are a bonus, not a blocking constraint.
				log.Printf("Gift %d could not be attached to order: %s\n", *giftID, err.Error())
			} else {
				order.GiftID = &gift.ID
			}
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		order.Lines = lines

		payment := models.Payment{
			OrderID:   order.ID,
			Reference: uuid.NewString(),
			Provider:  "stripe",
			Amount:    float64(total),
			Currency:  order.Currency,
			Status:    types.PAYMENT_PENDING,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		order.Payment = &payment

		return recomputeEventTx(tx, eventID)
	})
	if err != nil {
		log.Printf("CreateOrder failed for buyer %d: %s\n", buyerID, err.Error())
		return nil, err
	}
	go invalidateOccupancyCache(occurrenceID)
	go notifyOrderEvent(order.ID, ORDER_EVENT_CREATED, "")
	return &order, nil
}

// UpdateOrderStatus is the single point of truth for seat release and sale.
// Terminal orders are returned unchanged; a double pay or a payment callback
// racing the expire sweep resolves to whichever transaction committed first.
func UpdateOrderStatus(orderID uint, target types.OrderStatus) (*models.Order, error) {
	if orderID == 0 {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalid)
	}
	if target == types.ORDER_PENDING {
		return nil, fmt.Errorf("%w: cannot transition an order back to pending", ErrInvalid)
	}
	if !orderStatusTerminal(target) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalid, target)
	}
	gdb := db.GetDb()
	var order models.Order
	changed := false
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Order{ID: orderID}).
			First(&order).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if orderStatusTerminal(order.Status) {
			// Idempotent refresh; includes the double-pay and the
			// pay-after-expire race. Lines and payment ride along so the
			// response shape matches the first transition.
			if err := tx.
				Where(&models.OrderLine{OrderID: order.ID}).
				Find(&order.Lines).
				Error; err != nil {
				return err
			}
			var payment models.Payment
			if err := tx.
				Where(&models.Payment{OrderID: order.ID}).
				First(&payment).
				Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			} else {
				order.Payment = &payment
			}
			return nil
		}

		var lines []models.OrderLine
		if err := tx.
			Where(&models.OrderLine{OrderID: order.ID}).
			Find(&lines).
			Error; err != nil {
			return err
		}
		seatIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			seatIDs = append(seatIDs, line.SeatID)
		}

		if err := tx.
			Model(&models.Order{}).
			Where(&models.Order{ID: order.ID}).
			Update("status", target).
			Error; err != nil {
			return err
		}
		order.Status = target
		order.Lines = lines

		switch target {
		case types.ORDER_PAID:
			if len(seatIDs) > 0 {
				if err := tx.
					Model(&models.SeatStatus{}).
					Where("seat_id IN ? AND occurrence_id = ?", seatIDs, order.OccurrenceID).
					Update("status", types.SEAT_SOLD).
					Error; err != nil {
					return err
				}
			}
			if err := tx.
				Model(&models.Payment{}).
				Where(&models.Payment{OrderID: order.ID, Status: types.PAYMENT_PENDING}).
				Update("status", types.PAYMENT_SUCCEEDED).
				Error; err != nil {
				return err
			}
		case types.ORDER_CANCELLED, types.ORDER_FAILED:
			for _, line := range lines {
				if err := tx.
					Model(&models.TicketClass{}).
					Where(&models.TicketClass{ID: line.TicketClassID}).
					Update("quantity", gorm.Expr("quantity + ?", 1)).
					Error; err != nil {
					return err
				}
			}
			if len(seatIDs) > 0 {
				if err := tx.
					Model(&models.SeatStatus{}).
					Where("seat_id IN ? AND occurrence_id = ?", seatIDs, order.OccurrenceID).
					Updates(map[string]any{
						"status":     types.SEAT_AVAILABLE,
						"holder_id":  nil,
						"hold_until": nil,
					}).
					Error; err != nil {
					return err
				}
			}
			if err := tx.
				Model(&models.Payment{}).
				Where(&models.Payment{OrderID: order.ID, Status: types.PAYMENT_PENDING}).
				Update("status", types.PAYMENT_FAILED).
				Error; err != nil {
				return err
			}
		}
		changed = true

		var occ models.EventOccurrence
		if err := tx.
			Where(&models.EventOccurrence{ID: order.OccurrenceID}).
			First(&occ).
			Error; err != nil {
			return err
		}
		return recomputeEventTx(tx, occ.EventID)
	})
	if err != nil {
		log.Printf("UpdateOrderStatus failed for order %d: %s\n", orderID, err.Error())
		return nil, err
	}
	if changed {
		go invalidateOccupancyCache(order.OccurrenceID)
		switch target {
		case types.ORDER_PAID:
			go notifyOrderEvent(order.ID, ORDER_EVENT_PAID, "")
		case types.ORDER_CANCELLED:
			go notifyOrderEvent(order.ID, ORDER_EVENT_CANCELLED, "your reservation was cancelled before payment completed")
		case types.ORDER_FAILED:
			go notifyOrderEvent(order.ID, ORDER_EVENT_FAILED, "payment for your reservation failed")
		}
	}
	return &order, nil
}

// SyncAllSeatStatuses repairs drift between orders and seat statuses: seats of
// paid orders are forced to sold, seats referenced only by terminal
// cancelled/failed orders are forced back to available. Safe to run repeatedly
// and concurrently with order creation.
func SyncAllSeatStatuses() (updatedPaid int64, updatedCancelled int64, err error) {
	gdb := db.GetDb()
	err = gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.SeatStatus{}).
			Where("status <> ?", types.SEAT_SOLD).
			Where("(seat_id, occurrence_id) IN (?)",
				tx.Model(&models.OrderLine{}).
					Select("order_lines.seat_id, orders.occurrence_id").
					Joins("JOIN orders ON orders.id = order_lines.order_id").
					Where("orders.status = ?", types.ORDER_PAID)).
			Update("status", types.SEAT_SOLD)
		if res.Error != nil {
			return res.Error
		}
		updatedPaid = res.RowsAffected

		res = tx.
			Model(&models.SeatStatus{}).
			Where("status <> ?", types.SEAT_AVAILABLE).
			Where("(seat_id, occurrence_id) IN (?)",
				tx.Model(&models.OrderLine{}).
					Select("order_lines.seat_id, orders.occurrence_id").
					Joins("JOIN orders ON orders.id = order_lines.order_id").
					Where("orders.status IN ?", []types.OrderStatus{types.ORDER_CANCELLED, types.ORDER_FAILED})).
			Where("(seat_id, occurrence_id) NOT IN (?)",
				tx.Model(&models.OrderLine{}).
					Select("order_lines.seat_id, orders.occurrence_id").
					Joins("JOIN orders ON orders.id = order_lines.order_id").
					Where("orders.status IN ?", []types.OrderStatus{types.ORDER_PENDING, types.ORDER_PAID})).
			Updates(map[string]any{
				"status":     types.SEAT_AVAILABLE,
				"holder_id":  nil,
				"hold_until": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		updatedCancelled = res.RowsAffected
		return nil
	})
	if err != nil {
		log.Printf("SyncAllSeatStatuses failed: %s\n", err.Error())
		return 0, 0, err
	}
	log.Printf("SyncAllSeatStatuses: paid=%d cancelled=%d\n", updatedPaid, updatedCancelled)
	return updatedPaid, updatedCancelled, nil
}

// GetOrder loads an order with its lines and payment, for the read endpoints.
func GetOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalid)
	}
	gdb := db.GetDb()
	var order models.Order
	if err := gdb.
		Where(&models.Order{ID: orderID}).
		Preload("Lines").
		Preload("Lines.Seat").
		Preload("Payment").
		First(&order).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}
