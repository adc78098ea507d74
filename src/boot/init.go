package boot

import (
	"log"

	"tixd/src/common"
	"tixd/src/db"
	"tixd/src/lib"
	"tixd/src/models"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	gdb := db.GetDb()

	err := gdb.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventOccurrence{},
		&models.TicketClass{},
		&models.Seat{},
		&models.SeatStatus{},
		&models.Gift{},
		&models.Order{},
		&models.OrderLine{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return gdb
}

// InitScheduler registers the expire/reminder sweeps and starts the runner.
func InitScheduler() {
	if err := common.StartSweeper(); err != nil {
		log.Printf("Error starting sweeper: %s\n", err.Error())
		return
	}
	if err := lib.StartScheduler(); err != nil {
		log.Printf("Error starting scheduler: %s\n", err.Error())
	}
}

// InitBroker prepares the lifecycle topic and a logging consumer so local
// runs can watch the order event stream.
func InitBroker() {
	go func() {
		if _, err := lib.KafkaCreateTopics(common.OrderEventsTopic); err != nil {
			log.Printf("Error creating topics: %s\n", err.Error())
		}
	}()
	lib.KafkaConsume("tixd_order_events", common.OrderEventsTopic, func(body string) {
		log.Printf("[%s] message received: %s\n", common.OrderEventsTopic, body)
	})
}
