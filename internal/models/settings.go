package models

import "time"

// Settings holds per-user wage and notification preferences.
type Settings struct {
	OwnerID        int64     `json:"owner_id"`
	HourlyWage     int64     `json:"hourly_wage"`
	FixedSalary    int64     `json:"fixed_salary"`
	NotifyEmail    bool      `json:"notify_email"`
	TelegramChatID int64     `json:"telegram_chat_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NotifyTarget is a user that opted into reminder digests.
type NotifyTarget struct {
	UserID   int64
	Email    string
	Settings Settings
}

// Earnings is the derived monthly income from part-time job shifts.
type Earnings struct {
	Month       string  `json:"month"` // YYYY-MM
	Shifts      int     `json:"shifts"`
	Hours       float64 `json:"hours"`
	HourlyWage  int64   `json:"hourly_wage"`
	FixedSalary int64   `json:"fixed_salary"`
	Total       int64   `json:"total"`
}
