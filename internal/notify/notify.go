// Package notify delivers user notifications over the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"lifeos/internal/logger"
	"lifeos/internal/metrics"
	"lifeos/internal/models"
)

// ErrChannelUnavailable is returned by channels that are not configured.
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Message is one notification addressed to one user.
type Message struct {
	UserID string
	Email  string
	Type   models.NotificationType
	Title  string
	Body   string
}

// Channel sends a message over one delivery mechanism.
type Channel interface {
	Name() models.Channel
	Send(ctx context.Context, msg Message) error
}

// Result summarises a delivery across channels.
type Result struct {
	Delivered []models.Channel
	Skipped   []models.Channel
	Failed    map[models.Channel]error
}

// Any reports whether at least one channel delivered the message.
func (r Result) Any() bool {
	return len(r.Delivered) > 0
}

// Err joins every channel failure, or returns nil.
func (r Result) Err() error {
	var errs []error
	for ch, err := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", ch, err))
	}
	return errors.Join(errs...)
}

// Dispatcher fans a message out to the channels a user has enabled.
type Dispatcher struct {
	channels map[models.Channel]Channel
}

// NewDispatcher registers the given channels. A later channel with the same
// name replaces an earlier one.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{channels: make(map[models.Channel]Channel, len(channels))}
	for _, ch := range channels {
		if ch != nil {
			d.channels[ch.Name()] = ch
		}
	}
	return d
}

// Deliver sends msg on each enabled channel. Channels that are enabled but
// not registered, or that report ErrChannelUnavailable, count as skipped.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message, enabled []models.Channel) Result {
	log := logger.Named("notify")
	res := Result{Failed: make(map[models.Channel]error)}

	for _, name := range enabled {
		if err := ctx.Err(); err != nil {
			res.Failed[name] = err
			continue
		}

		ch, ok := d.channels[name]
		if !ok {
			res.Skipped = append(res.Skipped, name)
			metrics.NotificationsSent.WithLabelValues(string(name), "skipped").Inc()
			continue
		}

		err := ch.Send(ctx, msg)
		switch {
		case errors.Is(err, ErrChannelUnavailable):
			res.Skipped = append(res.Skipped, name)
			metrics.NotificationsSent.WithLabelValues(string(name), "skipped").Inc()
		case err != nil:
			log.Warnw("notification delivery failed", "channel", name, "user_id", msg.UserID, "error", err)
			res.Failed[name] = err
			metrics.NotificationsSent.WithLabelValues(string(name), "failed").Inc()
		default:
			res.Delivered = append(res.Delivered, name)
			metrics.NotificationsSent.WithLabelValues(string(name), "sent").Inc()
		}
	}
	return res
}
