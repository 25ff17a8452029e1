package models

import "time"

type MonitoredEmail struct {
	ID              string
	UserID          string
	Email           string
	LastBreachCount int
	LastCheckedAt   *time.Time
	CreatedAt       time.Time
}
