package common

import (
	"testing"

	"tixd/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, orderStatusTerminal(types.ORDER_PENDING))
	assert.True(t, orderStatusTerminal(types.ORDER_PAID))
	assert.True(t, orderStatusTerminal(types.ORDER_CANCELLED))
	assert.True(t, orderStatusTerminal(types.ORDER_FAILED))
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	order, err := CreateOrder(1, 1, nil, nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateOrderRejectsZeroBuyer(t *testing.T) {
	items := []types.OrderLineItem{{TicketClassID: 1, SeatID: 1}}

	order, err := CreateOrder(0, 7, items, nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateOrderRejectsZeroSeatInItem(t *testing.T) {
	items := []types.OrderLineItem{{TicketClassID: 1, SeatID: 0}}

	order, err := CreateOrder(42, 7, items, nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateOrderMissingBuyer(t *testing.T) {
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))
	mock.ExpectRollback()

	items := []types.OrderLineItem{{TicketClassID: 1, SeatID: 1}}
	order, err := CreateOrder(42, 7, items, nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderMissingOccurrence(t *testing.T) {
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(42, "buyer@example.com"))
	mock.ExpectQuery(`SELECT (.+) FROM "event_occurrences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id"}))
	mock.ExpectRollback()

	items := []types.OrderLineItem{{TicketClassID: 1, SeatID: 1}}
	order, err := CreateOrder(42, 7, items, nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderSeatAlreadyTaken(t *testing.T) {
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(42, "buyer@example.com"))
	mock.ExpectQuery(`SELECT (.+) FROM "event_occurrences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id"}).
			AddRow(7, 3))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_classes"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "type", "price"}).
			AddRow(1, 3, "vip", 100.0))
	mock.ExpectQuery(`SELECT (.+) FROM "seats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "ticket_class_id", "row_no", "seat_no"}).
			AddRow(1, 3, 1, 1, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "seat_statuses"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_id", "occurrence_id", "status"}).
			AddRow(9, 1, 7, "held"))
	mock.ExpectRollback()

	items := []types.OrderLineItem{{TicketClassID: 1, SeatID: 1}}
	order, err := CreateOrder(42, 7, items, nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "no longer available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusRejectsPendingTarget(t *testing.T) {
	order, err := UpdateOrderStatus(1, types.ORDER_PENDING)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateOrderStatusRejectsUnknownTarget(t *testing.T) {
	order, err := UpdateOrderStatus(1, types.OrderStatus("refunded"))

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateOrderStatusTerminalIsNoOp(t *testing.T) {
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "occurrence_id", "status", "reminder_sent"}).
			AddRow(5, 42, 7, "paid", false))
	mock.ExpectQuery(`SELECT (.+) FROM "order_lines"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "ticket_class_id", "seat_id"}).
			AddRow(11, 5, 1, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "reference", "status"}).
			AddRow("6ba7b810-9dad-11d1-80b4-00c04fd430c8", 5, "ref-1", "succeeded"))
	mock.ExpectCommit()

	order, err := UpdateOrderStatus(5, types.ORDER_CANCELLED)

	assert.NoError(t, err)
	assert.Equal(t, types.ORDER_PAID, order.Status)
	// The refreshed order carries the same shape as a first transition.
	assert.Len(t, order.Lines, 1)
	if assert.NotNil(t, order.Payment) {
		assert.Equal(t, types.PAYMENT_SUCCEEDED, order.Payment.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusPaidSellsSeats(t *testing.T) {
	silenceNotifications(t)
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "occurrence_id", "status"}).
			AddRow(5, 42, 7, "pending"))
	mock.ExpectQuery(`SELECT (.+) FROM "order_lines"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "ticket_class_id", "seat_id"}).
			AddRow(11, 5, 1, 1))
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "seat_statuses" SET "status"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "payments"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "event_occurrences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id"}).
			AddRow(7, 3))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_classes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "type", "price"}).
			AddRow(1, 3, "vip", 100.0))
	mock.ExpectQuery(`SELECT "id" FROM "event_occurrences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT "id" FROM "seats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count(.+) FROM "seat_statuses"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE "ticket_classes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := UpdateOrderStatus(5, types.ORDER_PAID)

	assert.NoError(t, err)
	assert.Equal(t, types.ORDER_PAID, order.Status)
	assert.Len(t, order.Lines, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusCancelledReleasesSeats(t *testing.T) {
	silenceNotifications(t)
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "occurrence_id", "status"}).
			AddRow(5, 42, 7, "pending"))
	mock.ExpectQuery(`SELECT (.+) FROM "order_lines"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "ticket_class_id", "seat_id"}).
			AddRow(11, 5, 1, 1))
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Quantity goes back first, then the seat is released with its hold
	// cleared, then the pending payment fails.
	mock.ExpectExec(`UPDATE "ticket_classes" SET (.+)quantity`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "seat_statuses" SET "hold_until"=(.+)"status"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "payments"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "event_occurrences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id"}).
			AddRow(7, 3))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_classes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "type", "price"}).
			AddRow(1, 3, "vip", 100.0))
	mock.ExpectQuery(`SELECT "id" FROM "event_occurrences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT "id" FROM "seats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count(.+) FROM "seat_statuses"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE "ticket_classes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := UpdateOrderStatus(5, types.ORDER_CANCELLED)

	assert.NoError(t, err)
	assert.Equal(t, types.ORDER_CANCELLED, order.Status)
	assert.Len(t, order.Lines, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusMissingOrder(t *testing.T) {
	_, mock := newMockDB()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "orders"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	order, err := UpdateOrderStatus(999, types.ORDER_PAID)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
