package models

import "time"

// User is an opaque learner identity. The core trusts UserID as supplied
// by the adapter (here, a Telegram user); curriculum pointer fields are
// advisory bookkeeping for Learn selection only (SPEC_FULL.md §4.2).
type User struct {
	ID                  string    `json:"id" db:"id"`
	TelegramID          int64     `json:"telegram_id" db:"telegram_id"`
	Username            string    `json:"username" db:"username"`
	FirstName           string    `json:"first_name" db:"first_name"`
	LastName            string    `json:"last_name" db:"last_name"`
	IsAdmin             bool      `json:"is_admin" db:"is_admin"`
	CurrentLevelID      *int64    `json:"current_level_id,omitempty" db:"current_level_id"`
	CurrentCategoryID   *int64    `json:"current_category_id,omitempty" db:"current_category_id"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
