package models

import "time"

// TelegramLink connects a user to a Telegram chat used for push notifications.
type TelegramLink struct {
	Base
	UserID            string     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ChatID            int64      `gorm:"index" json:"chat_id,omitempty"`
	TelegramUsername  string     `json:"telegram_username,omitempty"`
	LinkCode          string     `gorm:"size:6;index" json:"-"`
	LinkCodeExpiresAt *time.Time `json:"-"`
	IsActive          bool       `gorm:"default:false" json:"is_active"`
	LinkedAt          *time.Time `json:"linked_at,omitempty"`
}
