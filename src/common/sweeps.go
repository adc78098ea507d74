package common

import (
	"log"
	"time"

	"tixd/src/config"
	"tixd/src/db"
	"tixd/src/lib"
	"tixd/src/models"
	"tixd/src/types"
)

// expireCutoff: orders created before this instant have exceeded the payment
// timeout.
func expireCutoff(now time.Time, timeout time.Duration) time.Time {
	return now.Add(-timeout)
}

// reminderCutoff: orders created before this instant have less than the
// reminder lead time left before they expire.
func reminderCutoff(now time.Time, timeout, lead time.Duration) time.Time {
	return now.Add(lead - timeout)
}

// RunExpireSweep force-expires pending orders older than the payment timeout.
// All seat release goes through UpdateOrderStatus; a sweep racing a payment
// callback loses cleanly on the terminal-state guard.
func RunExpireSweep() (int, error) {
	gdb := db.GetDb()
	cutoff := expireCutoff(time.Now(), config.PaymentTimeout())
	var ids []uint
	if err := gdb.
		Model(&models.Order{}).
		Where("status = ? AND created_at < ?", types.ORDER_PENDING, cutoff).
		Pluck("id", &ids).
		Error; err != nil {
		log.Printf("[sweep] Error listing expired orders: %s\n", err.Error())
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if _, err := UpdateOrderStatus(id, types.ORDER_CANCELLED); err != nil {
			log.Printf("[sweep] Error expiring order %d: %s\n", id, err.Error())
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("[sweep] expired %d orders\n", expired)
	}
	return expired, nil
}

// RunReminderSweep sends a one-shot payment reminder to pending orders inside
// the reminder window. The guarded update is the latch: concurrent sweeps
// cannot double-send.
func RunReminderSweep() (int, error) {
	gdb := db.GetDb()
	now := time.Now()
	remindBefore := reminderCutoff(now, config.PaymentTimeout(), config.ReminderLead())
	stillAlive := expireCutoff(now, config.PaymentTimeout())
	var ids []uint
	if err := gdb.
		Model(&models.Order{}).
		Where("status = ? AND reminder_sent = ? AND created_at < ? AND created_at >= ?",
			types.ORDER_PENDING, false, remindBefore, stillAlive).
		Pluck("id", &ids).
		Error; err != nil {
		log.Printf("[sweep] Error listing orders to remind: %s\n", err.Error())
		return 0, err
	}
	reminded := 0
	for _, id := range ids {
		res := gdb.
			Model(&models.Order{}).
			Where("id = ? AND reminder_sent = ?", id, false).
			Update("reminder_sent", true)
		if res.Error != nil {
			log.Printf("[sweep] Error flagging reminder for order %d: %s\n", id, res.Error.Error())
			continue
		}
		if res.RowsAffected == 0 {
			// Another sweep got there first.
			continue
		}
		go notifyOrderEvent(id, ORDER_EVENT_REMINDER, "your reservation expires soon, complete payment to keep your seats")
		reminded++
	}
	if reminded > 0 {
		log.Printf("[sweep] reminded %d orders\n", reminded)
	}
	return reminded, nil
}

// StartSweeper registers the recurring expire+reminder job. The expire pass
// runs first so the reminder pass never mails an already dead order.
func StartSweeper() error {
	interval := config.SweepInterval()
	if _, err := lib.CreateCronJob(runSweeps, interval); err != nil {
		log.Printf("Error registering sweep job: %s\n", err.Error())
		return err
	}
	log.Printf("Sweeper registered at interval %s\n", interval)
	return nil
}

func runSweeps() {
	if _, err := RunExpireSweep(); err != nil {
		log.Printf("[sweep] expire sweep failed: %s\n", err.Error())
	}
	if _, err := RunReminderSweep(); err != nil {
		log.Printf("[sweep] reminder sweep failed: %s\n", err.Error())
	}
}
