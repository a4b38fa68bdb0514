package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
)

type stubChannel struct {
	name models.Channel
	err  error
	sent []Message
}

func (s *stubChannel) Name() models.Channel { return s.name }

func (s *stubChannel) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestDispatcherDeliver(t *testing.T) {
	msg := Message{UserID: "u1", Email: "a@b.c", Type: models.NotificationTypeSubscriptionRenewal, Title: "Netflix renews today"}

	t.Run("only_enabled_channels", func(t *testing.T) {
		email := &stubChannel{name: models.ChannelEmail}
		db := &stubChannel{name: models.ChannelDatabase}
		d := NewDispatcher(email, db)

		res := d.Deliver(context.Background(), msg, []models.Channel{models.ChannelDatabase})
		if !res.Any() || len(res.Delivered) != 1 || res.Delivered[0] != models.ChannelDatabase {
			t.Fatalf("expected database delivery only, got %+v", res)
		}
		if len(email.sent) != 0 {
			t.Error("email channel should not be used when disabled")
		}
	})

	t.Run("unregistered_channel_skipped", func(t *testing.T) {
		d := NewDispatcher(&stubChannel{name: models.ChannelDatabase})
		res := d.Deliver(context.Background(), msg, []models.Channel{models.ChannelPush, models.ChannelDatabase})
		if len(res.Skipped) != 1 || res.Skipped[0] != models.ChannelPush {
			t.Errorf("expected push skipped, got %+v", res.Skipped)
		}
		if len(res.Delivered) != 1 {
			t.Errorf("expected 1 delivery, got %d", len(res.Delivered))
		}
	})

	t.Run("failure_is_isolated", func(t *testing.T) {
		broken := &stubChannel{name: models.ChannelEmail, err: errors.New("smtp down")}
		db := &stubChannel{name: models.ChannelDatabase}
		d := NewDispatcher(broken, db)

		res := d.Deliver(context.Background(), msg, []models.Channel{models.ChannelEmail, models.ChannelDatabase})
		if len(res.Failed) != 1 || res.Failed[models.ChannelEmail] == nil {
			t.Fatalf("expected email failure, got %+v", res.Failed)
		}
		if !res.Any() {
			t.Error("database delivery should still succeed")
		}
		if res.Err() == nil || !strings.Contains(res.Err().Error(), "smtp down") {
			t.Errorf("expected joined error to mention cause, got %v", res.Err())
		}
	})

	t.Run("unavailable_counts_as_skipped", func(t *testing.T) {
		d := NewDispatcher(&stubChannel{name: models.ChannelEmail, err: ErrChannelUnavailable})
		res := d.Deliver(context.Background(), msg, []models.Channel{models.ChannelEmail})
		if res.Any() || len(res.Failed) != 0 || len(res.Skipped) != 1 {
			t.Errorf("expected a single skip, got %+v", res)
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		db := &stubChannel{name: models.ChannelDatabase}
		res := NewDispatcher(db).Deliver(ctx, msg, []models.Channel{models.ChannelDatabase})
		if res.Any() || len(db.sent) != 0 {
			t.Error("nothing should be delivered after cancellation")
		}
	})
}

type recorderFunc func(userID string, nt models.NotificationType, title, body string) (*models.Notification, error)

func (f recorderFunc) CreateNotification(userID string, nt models.NotificationType, title, body string) (*models.Notification, error) {
	return f(userID, nt, title, body)
}

func TestDatabaseChannel(t *testing.T) {
	var got string
	ch := NewDatabaseChannel(recorderFunc(func(userID string, _ models.NotificationType, title, _ string) (*models.Notification, error) {
		got = userID + "|" + title
		return &models.Notification{}, nil
	}))

	if err := ch.Send(context.Background(), Message{UserID: "u1", Title: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "u1|hello" {
		t.Errorf("unexpected recorded notification %q", got)
	}
}

func TestEmailChannel(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		err := NewEmailChannel(SMTPConfig{}).Send(context.Background(), Message{Email: "a@b.c"})
		if !errors.Is(err, ErrChannelUnavailable) {
			t.Errorf("expected ErrChannelUnavailable, got %v", err)
		}
	})

	t.Run("sends_message", func(t *testing.T) {
		ch := NewEmailChannel(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "LifeOS <noreply@example.com>"})
		var addr, sender string
		var body []byte
		ch.sendMail = func(a string, _ smtp.Auth, from string, to []string, msg []byte) error {
			addr = a
			sender = from
			body = msg
			if len(to) != 1 || to[0] != "a@b.c" {
				t.Errorf("unexpected recipients %v", to)
			}
			return nil
		}

		err := ch.Send(context.Background(), Message{Email: "a@b.c", Title: "Spotify renews\r\ntomorrow", Body: "line1\nline2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr != "smtp.example.com:587" {
			t.Errorf("unexpected addr %q", addr)
		}
		if sender != "noreply@example.com" {
			t.Errorf("envelope sender should be the bare address, got %q", sender)
		}
		if !strings.Contains(string(body), "Subject: Spotify renews  tomorrow\r\n") {
			t.Errorf("subject should be sanitised, got %q", body)
		}
		if !strings.Contains(string(body), "line1\r\nline2") {
			t.Errorf("body should use CRLF line endings, got %q", body)
		}
	})

	t.Run("missing_address", func(t *testing.T) {
		ch := NewEmailChannel(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "x@y.z"})
		if err := ch.Send(context.Background(), Message{UserID: "u1"}); err == nil {
			t.Error("expected error for user without email")
		}
	})
}

type stubSender struct {
	sent []tgbotapi.MessageConfig
}

func (s *stubSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, m)
	}
	return tgbotapi.Message{}, nil
}

type chatResolverFunc func(string) (int64, error)

func (f chatResolverFunc) ChatIDForUser(userID string) (int64, error) { return f(userID) }

func TestTelegramChannel(t *testing.T) {
	t.Run("linked_chat", func(t *testing.T) {
		bot := &stubSender{}
		ch := NewTelegramChannel(bot, chatResolverFunc(func(string) (int64, error) { return 42, nil }))

		if err := ch.Send(context.Background(), Message{UserID: "u1", Title: "T", Body: "B"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(bot.sent) != 1 || bot.sent[0].ChatID != 42 || bot.sent[0].Text != "T\n\nB" {
			t.Errorf("unexpected sent messages %+v", bot.sent)
		}
	})

	t.Run("not_linked", func(t *testing.T) {
		ch := NewTelegramChannel(&stubSender{}, chatResolverFunc(func(string) (int64, error) {
			return 0, apperrors.ErrTelegramNotLinked
		}))
		if err := ch.Send(context.Background(), Message{UserID: "u1"}); !errors.Is(err, ErrChannelUnavailable) {
			t.Errorf("expected ErrChannelUnavailable, got %v", err)
		}
	})

	t.Run("no_bot", func(t *testing.T) {
		ch := NewTelegramChannel(nil, nil)
		if err := ch.Send(context.Background(), Message{UserID: "u1"}); !errors.Is(err, ErrChannelUnavailable) {
			t.Errorf("expected ErrChannelUnavailable, got %v", err)
		}
	})
}
