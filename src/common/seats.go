package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tixd/src/db"
	"tixd/src/lib"
	"tixd/src/models"
	"tixd/src/types"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seatRowWidth is the fixed row width used when packing newly allocated seats.
const seatRowWidth uint = 10

// classStatusFor derives the coarse ticket class status from the available
// fraction. The half-of-total threshold mirrors the original business rule.
func classStatusFor(total int, free int) types.TicketClassStatus {
	if free <= 0 {
		return types.TICKET_SOLD_OUT
	}
	if free*2 < total {
		return types.TICKET_LIMITED
	}
	return types.TICKET_AVAILABLE
}

func statusRank(s types.TicketClassStatus) int {
	switch s {
	case types.TICKET_SOLD_OUT:
		return 2
	case types.TICKET_LIMITED:
		return 1
	}
	return 0
}

// worstStatus picks the more restrictive of two derived statuses. A class is
// only as available as its most contended occurrence.
func worstStatus(a, b types.TicketClassStatus) types.TicketClassStatus {
	if statusRank(b) > statusRank(a) {
		return b
	}
	return a
}

// recomputeEventTx rewrites the two derived ticket class fields from the
// current seat and seat-status state. It is the reconciliation step invoked
// inside every mutating transaction, not a cache.
func recomputeEventTx(tx *gorm.DB, eventID uint) error {
	var classes []models.TicketClass
	if err := tx.
		Where(&models.TicketClass{EventID: eventID}).
		Find(&classes).
		Error; err != nil {
		return err
	}
	var occIDs []uint
	if err := tx.
		Model(&models.EventOccurrence{}).
		Where(&models.EventOccurrence{EventID: eventID}).
		Pluck("id", &occIDs).
		Error; err != nil {
		return err
	}
	for _, class := range classes {
		var seatIDs []uint
		if err := tx.
			Model(&models.Seat{}).
			Where(&models.Seat{TicketClassID: class.ID}).
			Pluck("id", &seatIDs).
			Error; err != nil {
			return err
		}
		total := len(seatIDs)
		status := classStatusFor(total, total)
		for _, occID := range occIDs {
			var taken int64
			if total > 0 {
				if err := tx.
					Model(&models.SeatStatus{}).
					Where("occurrence_id = ? AND seat_id IN ? AND status <> ?", occID, seatIDs, types.SEAT_AVAILABLE).
					Count(&taken).
					Error; err != nil {
					return err
				}
			}
			status = worstStatus(status, classStatusFor(total, total-int(taken)))
		}
		if err := tx.
			Model(&models.TicketClass{}).
			Where(&models.TicketClass{ID: class.ID}).
			Updates(map[string]any{
				"quantity": total,
				"status":   status,
			}).
			Error; err != nil {
			return err
		}
	}
	return nil
}

// RecomputeEvent runs the reconciliation in its own transaction and drops the
// cached seat maps for every occurrence of the event.
func RecomputeEvent(eventID uint) error {
	gdb := db.GetDb()
	var occIDs []uint
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.EventOccurrence{}).
			Where(&models.EventOccurrence{EventID: eventID}).
			Pluck("id", &occIDs).
			Error; err != nil {
			return err
		}
		return recomputeEventTx(tx, eventID)
	})
	if err != nil {
		log.Printf("RecomputeEvent failed for event %d: %s\n", eventID, err.Error())
		return err
	}
	for _, occID := range occIDs {
		invalidateOccupancyCache(occID)
	}
	return nil
}

type seatSlot struct {
	Row    uint
	Number uint
}

// nextSeatSlots picks row/number positions for n new seats: gaps in existing
// rows are filled first, then fresh rows are opened after the highest one.
func nextSeatSlots(existing []models.Seat, n int, width uint) []seatSlot {
	taken := map[uint]map[uint]bool{}
	var maxRow uint
	for _, s := range existing {
		if taken[s.Row] == nil {
			taken[s.Row] = map[uint]bool{}
		}
		taken[s.Row][s.Number] = true
		if s.Row > maxRow {
			maxRow = s.Row
		}
	}
	slots := make([]seatSlot, 0, n)
	for row := uint(1); row <= maxRow && len(slots) < n; row++ {
		for num := uint(1); num <= width && len(slots) < n; num++ {
			if !taken[row][num] {
				slots = append(slots, seatSlot{Row: row, Number: num})
			}
		}
	}
	for row := maxRow + 1; len(slots) < n; row++ {
		for num := uint(1); num <= width && len(slots) < n; num++ {
			slots = append(slots, seatSlot{Row: row, Number: num})
		}
	}
	return slots
}

// ResizeTicketClass grows or shrinks a class's seat pool. Growth packs new
// seats into partially filled rows and seeds an available status row per
// occurrence. Shrink removes only seats with no order history, highest
// row/number first, and refuses to dig into sold inventory.
func ResizeTicketClass(classID uint, newQuantity int) error {
	if classID == 0 {
		return fmt.Errorf("%w: ticket class id is required", ErrInvalid)
	}
	if newQuantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalid)
	}
	gdb := db.GetDb()
	var occIDs []uint
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var class models.TicketClass
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.TicketClass{ID: classID}).
			First(&class).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: ticket class %d", ErrNotFound, classID)
			}
			return err
		}
		if err := tx.
			Model(&models.EventOccurrence{}).
			Where(&models.EventOccurrence{EventID: class.EventID}).
			Pluck("id", &occIDs).
			Error; err != nil {
			return err
		}
		var seats []models.Seat
		if err := tx.
			Where(&models.Seat{TicketClassID: class.ID}).
			Order("row_no, seat_no").
			Find(&seats).
			Error; err != nil {
			return err
		}
		current := len(seats)

		switch {
		case newQuantity > current:
			slots := nextSeatSlots(seats, newQuantity-current, seatRowWidth)
			for _, slot := range slots {
				seat := models.Seat{
					EventID:       class.EventID,
					TicketClassID: class.ID,
					Row:           slot.Row,
					Number:        slot.Number,
				}
				if err := tx.Create(&seat).Error; err != nil {
					return err
				}
				for _, occID := range occIDs {
					status := models.SeatStatus{
						SeatID:       seat.ID,
						OccurrenceID: occID,
						Status:       types.SEAT_AVAILABLE,
					}
					if err := tx.Create(&status).Error; err != nil {
						return err
					}
				}
			}
		case newQuantity < current:
			need := current - newQuantity
			var victims []models.Seat
			if err := tx.
				Where(&models.Seat{TicketClassID: class.ID}).
				Where("id NOT IN (?)", tx.Model(&models.OrderLine{}).Select("seat_id")).
				Order("row_no DESC, seat_no DESC").
				Limit(need).
				Find(&victims).
				Error; err != nil {
				return err
			}
			if len(victims) < need {
				return fmt.Errorf("%w: cannot shrink below sold count", ErrConflict)
			}
			victimIDs := make([]uint, 0, need)
			for _, seat := range victims {
				victimIDs = append(victimIDs, seat.ID)
			}
			if err := tx.
				Where("seat_id IN ?", victimIDs).
				Delete(&models.SeatStatus{}).
				Error; err != nil {
				return err
			}
			if err := tx.
				Where("id IN ?", victimIDs).
				Delete(&models.Seat{}).
				Error; err != nil {
				return err
			}
		default:
			return nil
		}
		return recomputeEventTx(tx, class.EventID)
	})
	if err != nil {
		log.Printf("ResizeTicketClass failed for class %d: %s\n", classID, err.Error())
		return err
	}
	for _, occID := range occIDs {
		invalidateOccupancyCache(occID)
	}
	return nil
}

type SeatOccupancy struct {
	SeatID uint            `json:"seat_id"`
	Zone   string          `json:"zone,omitempty"`
	Row    uint            `json:"row"`
	Number uint            `json:"number"`
	Status types.SeatState `json:"status"`
}

func occupancyCacheKey(occurrenceID uint) string {
	return fmt.Sprintf("occupancy:%d", occurrenceID)
}

func invalidateOccupancyCache(occurrenceID uint) {
	lib.CacheInvalidate(context.Background(), occupancyCacheKey(occurrenceID))
}

// GetOccupancy returns the seat map for an occurrence. Reads go through a
// short-lived redis cache and may be slightly stale; availability is resolved
// at reservation time, not display time.
func GetOccupancy(occurrenceID uint) ([]SeatOccupancy, error) {
	if occurrenceID == 0 {
		return nil, fmt.Errorf("%w: occurrence id is required", ErrInvalid)
	}
	ctx := context.Background()
	key := occupancyCacheKey(occurrenceID)
	if rd := lib.GetRedisClient(); rd != nil {
		cached, err := rd.Get(ctx, key).Result()
		if err == nil {
			var out []SeatOccupancy
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("Error reading occupancy cache for %d: %s\n", occurrenceID, err.Error())
		}
	}

	gdb := db.GetDb()
	var occ models.EventOccurrence
	if err := gdb.
		Where(&models.EventOccurrence{ID: occurrenceID}).
		First(&occ).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: occurrence %d", ErrNotFound, occurrenceID)
		}
		return nil, err
	}
	var seats []models.Seat
	if err := gdb.
		Where(&models.Seat{EventID: occ.EventID}).
		Order("row_no, seat_no").
		Find(&seats).
		Error; err != nil {
		return nil, err
	}
	var statuses []models.SeatStatus
	if err := gdb.
		Where(&models.SeatStatus{OccurrenceID: occurrenceID}).
		Find(&statuses).
		Error; err != nil {
		return nil, err
	}
	bySeat := make(map[uint]types.SeatState, len(statuses))
	for _, status := range statuses {
		bySeat[status.SeatID] = status.Status
	}
	out := make([]SeatOccupancy, 0, len(seats))
	for _, seat := range seats {
		state, ok := bySeat[seat.ID]
		if !ok {
			// No status row yet means nobody ever tried to reserve it.
			state = types.SEAT_AVAILABLE
		}
		out = append(out, SeatOccupancy{
			SeatID: seat.ID,
			Zone:   seat.Zone,
			Row:    seat.Row,
			Number: seat.Number,
			Status: state,
		})
	}

	if rd := lib.GetRedisClient(); rd != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := rd.SetEx(ctx, key, string(raw), 30*time.Second).Err(); err != nil {
				log.Printf("Error caching occupancy for %d: %s\n", occurrenceID, err.Error())
			}
		}
	}
	return out, nil
}
