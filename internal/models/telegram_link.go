package models

import "time"

// TelegramLink is a one-time code the user sends to the bot to attach a chat
// to their account.
type TelegramLink struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"-"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
}
