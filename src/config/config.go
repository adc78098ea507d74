package config

import (
	"fmt"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

var API_ENV = os.Getenv("API_ENV")

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// PaymentTimeout is how long a pending order may stay unpaid before the
// sweeper force-expires it.
func PaymentTimeout() time.Duration {
	return durationEnv("ORDER_PAYMENT_TIMEOUT", 15*time.Minute)
}

// ReminderLead is how long before the payment deadline the buyer gets a
// one-shot payment reminder.
func ReminderLead() time.Duration {
	return durationEnv("ORDER_REMINDER_LEAD", 5*time.Minute)
}

func SweepInterval() time.Duration {
	return durationEnv("SWEEP_INTERVAL", 30*time.Second)
}
