package models

import "time"

// WebhookEvent records every provider event id we have applied. The unique
// index is what makes redelivered events a no-op: the reconciler inserts the
// id before touching any state and bails out on a duplicate-key error.
type WebhookEvent struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EventID     string    `json:"event_id" gorm:"uniqueIndex;not null"`
	Type        string    `json:"type" gorm:"not null"`
	ProcessedAt time.Time `json:"processed_at"`
}
