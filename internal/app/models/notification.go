package models

import "time"

// Notification defines an in-app notification row. Notifications are
// fire-and-forget: a failure to create one never rolls back the business
// operation that triggered it.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
