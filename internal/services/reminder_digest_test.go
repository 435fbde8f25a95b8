package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/gomail.v2"

	"taskcal/internal/models"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

type fakeBot struct {
	texts []string
	chats []int64
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	f.texts = append(f.texts, msg.Text)
	f.chats = append(f.chats, msg.ChatID)
	return tgbotapi.Message{}, nil
}

func TestReminderDigest_RunOnce(t *testing.T) {
	tasks, store, sess := newTestTaskService(t)
	ctx := context.Background()

	user := &models.User{Email: "a@example.com"}
	if err := store.Create(ctx, user); err != nil {
		t.Fatal(err)
	}
	sess.UserID = user.ID
	if err := store.Upsert(ctx, &models.Settings{OwnerID: user.ID, NotifyEmail: true, TelegramChatID: 777}); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, tasks, sess, models.TaskInput{Title: "Midterm", Category: models.CategoryTest,
		Date: date(2026, 3, 15), StartTime: clock(10, 0), EndTime: clock(11, 0)})
	mustCreate(t, tasks, sess, models.TaskInput{Title: "Essay", Category: models.CategoryAssignment,
		Date: date(2026, 3, 25), StartTime: clock(10, 0), EndTime: clock(11, 0)})

	dialer := &fakeDialer{}
	bot := &fakeBot{}
	d := NewReminderDigest(store, store, &emailService{dialer: dialer, from: "noreply@example.com"},
		&TelegramService{bot: bot}, sess.Location, 5, time.Second)
	d.now = tasks.now

	n, err := d.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 || len(dialer.sent) != 1 || len(bot.texts) != 1 {
		t.Fatalf("notified=%d mails=%d tg=%d", n, len(dialer.sent), len(bot.texts))
	}
	if bot.chats[0] != 777 || !strings.Contains(bot.texts[0], "Midterm") || strings.Contains(bot.texts[0], "Essay") {
		t.Errorf("telegram text %q", bot.texts[0])
	}
	if got := dialer.sent[0].GetHeader("To"); len(got) != 1 || got[0] != "a@example.com" {
		t.Errorf("To = %v", got)
	}

	// same day again: already reminded
	n, err = d.RunOnce(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second run notified=%d err=%v", n, err)
	}
}

func TestReminderDigest_DeliveryFailureKeepsReminderPending(t *testing.T) {
	tasks, store, sess := newTestTaskService(t)
	ctx := context.Background()

	user := &models.User{Email: "a@example.com"}
	store.Create(ctx, user)
	sess.UserID = user.ID
	store.Upsert(ctx, &models.Settings{OwnerID: user.ID, NotifyEmail: true})
	mustCreate(t, tasks, sess, models.TaskInput{Title: "Midterm", Category: models.CategoryTest,
		Date: date(2026, 3, 15), StartTime: clock(10, 0), EndTime: clock(11, 0)})

	dialer := &fakeDialer{err: errors.New("smtp down")}
	d := NewReminderDigest(store, store, &emailService{dialer: dialer}, nil, sess.Location, 0, time.Second)
	d.now = tasks.now

	if n, err := d.RunOnce(ctx); err == nil || n != 0 {
		t.Fatalf("notified=%d err=%v, want failure", n, err)
	}
	today := d.norm.Today(d.now())
	pending, _ := store.ListDueForReminder(ctx, user.ID, today, 5)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
}

func TestReminderDigest_StartRejectsBadSpec(t *testing.T) {
	_, store, sess := newTestTaskService(t)
	d := NewReminderDigest(store, store, nil, nil, sess.Location, 0, time.Second)
	if err := d.Start("every morning"); err == nil {
		d.Stop()
		t.Fatal("expected error for invalid cron spec")
	}
	if err := d.Start("0 8 * * *"); err != nil {
		t.Fatal(err)
	}
	d.Stop()
}

func TestTelegramService_SkipsWithoutBot(t *testing.T) {
	var tg *TelegramService
	if tg.Enabled() {
		t.Error("nil service reports enabled")
	}
	if err := tg.SendMessage(1, "hi"); err != nil {
		t.Errorf("nil service send: %v", err)
	}
	bot := &fakeBot{}
	tg = &TelegramService{bot: bot}
	if err := tg.SendMessage(0, "hi"); err != nil || len(bot.texts) != 0 {
		t.Errorf("zero chat id should be skipped")
	}
}
