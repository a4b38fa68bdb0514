package notify

import (
	"context"

	"lifeos/internal/models"
)

// Recorder stores in-app notifications.
type Recorder interface {
	CreateNotification(userID string, notificationType models.NotificationType, title, body string) (*models.Notification, error)
}

// DatabaseChannel writes the message to the user's in-app feed.
type DatabaseChannel struct {
	recorder Recorder
}

// NewDatabaseChannel creates a channel backed by the notification feed.
func NewDatabaseChannel(recorder Recorder) *DatabaseChannel {
	return &DatabaseChannel{recorder: recorder}
}

func (c *DatabaseChannel) Name() models.Channel { return models.ChannelDatabase }

func (c *DatabaseChannel) Send(_ context.Context, msg Message) error {
	_, err := c.recorder.CreateNotification(msg.UserID, msg.Type, msg.Title, msg.Body)
	return err
}
