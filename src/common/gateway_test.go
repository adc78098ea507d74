package common

import (
	"testing"
	"time"

	"tixd/src/lib"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

// newMockRedis swaps the shared redis instance for a mocked one.
func newMockRedis(t *testing.T) redismock.ClientMock {
	rd, rmock := redismock.NewClientMock()
	lib.NewRedisClient(rd)
	t.Cleanup(func() { lib.NewRedisClient(nil) })
	return rmock
}

func TestParseCallbackPaidSession(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_456",
				"payment_status": "paid",
				"metadata": {"reference": "ref-789"}
			}
		}
	}`)

	event, err := parseCallback(payload)

	assert.NoError(t, err)
	assert.Equal(t, "evt_123", event.EventID)
	assert.Equal(t, "cs_test_456", event.SessionID)
	assert.Equal(t, "ref-789", event.Reference)
	assert.True(t, event.Paid)
}

func TestParseCallbackUnpaidSession(t *testing.T) {
	payload := []byte(`{
		"id": "evt_124",
		"type": "checkout.session.expired",
		"data": {
			"object": {
				"id": "cs_test_457",
				"payment_status": "unpaid",
				"metadata": {"reference": "ref-790"}
			}
		}
	}`)

	event, err := parseCallback(payload)

	assert.NoError(t, err)
	assert.False(t, event.Paid)
}

func TestParseCallbackInvalidJSON(t *testing.T) {
	event, err := parseCallback([]byte(`{not json`))

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseCallbackMissingReference(t *testing.T) {
	payload := []byte(`{
		"id": "evt_125",
		"data": {"object": {"id": "cs_test_458", "payment_status": "paid", "metadata": {}}}
	}`)

	event, err := parseCallback(payload)

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseCallbackMissingObject(t *testing.T) {
	event, err := parseCallback([]byte(`{"id": "evt_126"}`))

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyCallbackResolvesOrder(t *testing.T) {
	rmock := newMockRedis(t)
	rmock.ExpectSetNX("callback:evt_200", 1, 24*time.Hour).SetVal(true)
	_, mock := newMockDB()
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "reference"}).
			AddRow("6ba7b810-9dad-11d1-80b4-00c04fd430c8", 5, "ref-1"))

	payload := []byte(`{
		"id": "evt_200",
		"data": {
			"object": {
				"payment_status": "paid",
				"metadata": {"reference": "ref-1"}
			}
		}
	}`)
	result, err := VerifyCallback(payload)

	assert.NoError(t, err)
	assert.Equal(t, "evt_200", result.EventID)
	assert.Equal(t, uint(5), result.OrderID)
	assert.True(t, result.Success)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCallbackDuplicateDelivery(t *testing.T) {
	rmock := newMockRedis(t)
	rmock.ExpectSetNX("callback:evt_201", 1, 24*time.Hour).SetVal(false)

	payload := []byte(`{
		"id": "evt_201",
		"data": {
			"object": {
				"payment_status": "paid",
				"metadata": {"reference": "ref-1"}
			}
		}
	}`)
	result, err := VerifyCallback(payload)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestReleaseCallbackDropsMarker(t *testing.T) {
	rmock := newMockRedis(t)
	rmock.ExpectDel("callback:evt_202").SetVal(1)

	ReleaseCallback("evt_202")

	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestReleaseCallbackIgnoresEmptyEvent(t *testing.T) {
	rmock := newMockRedis(t)

	ReleaseCallback("")

	assert.NoError(t, rmock.ExpectationsWereMet())
}
