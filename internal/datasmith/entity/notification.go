package entity

import "time"

type Notification struct {
	ID      string
	Level   NotificationLevel
	Message string
	At      time.Time
}
