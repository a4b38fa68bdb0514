package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// NotificationType identifies what a notification is about
type NotificationType string

const (
	NotificationTypeSubscriptionRenewal NotificationType = "subscription_renewal"
	NotificationTypeBudgetAlert         NotificationType = "budget_alert"
	NotificationTypeAutoRenewal         NotificationType = "auto_renewal"
)

// Channel is a delivery mechanism for notifications
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelDatabase Channel = "database"
	ChannelPush     Channel = "push"
)

// DefaultRenewalDays are the day offsets a new user is reminded at.
var DefaultRenewalDays = DayOffsets{7, 3, 1, 0}

// DayOffsets is a set of "days before due" offsets stored as a JSON array.
type DayOffsets []int

// Normalize removes duplicates and sorts the offsets in descending order.
func (d DayOffsets) Normalize() DayOffsets {
	seen := make(map[int]bool, len(d))
	out := make(DayOffsets, 0, len(d))
	for _, v := range d {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Contains reports whether offset is in the set.
func (d DayOffsets) Contains(offset int) bool {
	for _, v := range d {
		if v == offset {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (d DayOffsets) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *DayOffsets) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = DayOffsets{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("day offsets: unsupported type %T", src)
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return errors.Join(errors.New("day offsets: invalid JSON"), err)
	}
	*d = out
	return nil
}

// NotificationPreference holds a user's delivery settings for one notification type.
type NotificationPreference struct {
	Base
	UserID           string           `gorm:"type:uuid;not null;uniqueIndex:uq_pref_user_type" json:"user_id"`
	NotificationType NotificationType `gorm:"not null;uniqueIndex:uq_pref_user_type" json:"notification_type"`
	Enabled          bool             `gorm:"not null" json:"enabled"`
	EmailEnabled     bool             `gorm:"not null" json:"email_enabled"`
	DatabaseEnabled  bool             `gorm:"not null" json:"database_enabled"`
	PushEnabled      bool             `gorm:"not null" json:"push_enabled"`
	Days             DayOffsets       `gorm:"type:text;not null" json:"days"`
}

// EnabledChannels lists the channels switched on for this preference.
func (p *NotificationPreference) EnabledChannels() []Channel {
	var out []Channel
	if p.EmailEnabled {
		out = append(out, ChannelEmail)
	}
	if p.DatabaseEnabled {
		out = append(out, ChannelDatabase)
	}
	if p.PushEnabled {
		out = append(out, ChannelPush)
	}
	return out
}

// NotificationDispatch records that a notification was sent. DedupeKey is
// unique, so inserting it is what makes a job run idempotent.
type NotificationDispatch struct {
	Base
	UserID           string           `gorm:"type:uuid;not null;index" json:"user_id"`
	NotificationType NotificationType `gorm:"not null" json:"notification_type"`
	ResourceID       string           `gorm:"type:uuid;not null;index" json:"resource_id"`
	DispatchDate     time.Time        `gorm:"type:date;not null" json:"dispatch_date"`
	DedupeKey        string           `gorm:"not null;uniqueIndex" json:"dedupe_key"`
	Channels         string           `json:"channels"`
}

// Notification is an in-app message shown in the user's notification feed.
type Notification struct {
	Base
	UserID string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Type   NotificationType `gorm:"not null" json:"type"`
	Title  string           `gorm:"not null" json:"title"`
	Body   string           `json:"body"`
	ReadAt *time.Time       `json:"read_at,omitempty"`
}
