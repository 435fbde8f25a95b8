package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"html"
	"log"
	"strings"
	"time"
	"unicode"

	"taskcal/internal/apperr"
	"taskcal/internal/eventtime"
	"taskcal/internal/models"
	"taskcal/internal/repositories"
)

const (
	linkCodeTTL    = 30 * time.Minute
	btnMyReminders = "📋 Reminders"
)

// TelegramLinkService attaches Telegram chats to accounts and answers the
// bot's chat commands.
type TelegramLinkService interface {
	RequestLink(ctx context.Context, sess models.Session) (*models.TelegramLink, error)
	// HandleMessage reacts to one incoming chat message. Replies go through
	// the bot; failures to reply are logged, not returned.
	HandleMessage(ctx context.Context, chatID int64, text string) error
}

type telegramLinkService struct {
	tg           *TelegramService
	links        repositories.TelegramLinkRepository
	settings     repositories.SettingsRepository
	tasks        TaskService
	loc          *time.Location
	queryTimeout time.Duration
	now          func() time.Time
}

func NewTelegramLinkService(
	tg *TelegramService,
	links repositories.TelegramLinkRepository,
	settings repositories.SettingsRepository,
	tasks TaskService,
	loc *time.Location,
	queryTimeout time.Duration,
) TelegramLinkService {
	return &telegramLinkService{
		tg:           tg,
		links:        links,
		settings:     settings,
		tasks:        tasks,
		loc:          loc,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

func (s *telegramLinkService) RequestLink(ctx context.Context, sess models.Session) (*models.TelegramLink, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	code := strings.ToUpper(hex.EncodeToString(buf)) // 32 HEX

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	link, err := s.links.Create(ctx, sess.UserID, code, s.now().Add(linkCodeTTL))
	if err != nil {
		return nil, err
	}
	log.Printf("[tg][link][req] userID=%d expires=%s", sess.UserID, link.ExpiresAt.Format(time.RFC3339))
	return link, nil
}

// normalizeLinkCode strips quotes and punctuation users paste around the code.
func normalizeLinkCode(s string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.Is(unicode.Hex_Digit, r) {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) != 32 {
		return "", false
	}
	return code, true
}

func (s *telegramLinkService) HandleMessage(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	log.Printf("[tg][webhook] chatID=%d text=%q", chatID, text)

	switch {
	case strings.HasPrefix(text, "/link"):
		return s.link(ctx, chatID, strings.TrimPrefix(text, "/link"))
	case strings.HasPrefix(text, "/start"):
		// deep links arrive as "/start <payload>"
		if payload := strings.TrimSpace(strings.TrimPrefix(text, "/start")); payload != "" {
			return s.link(ctx, chatID, payload)
		}
		s.reply(chatID, "Hi! To connect your calendar, send:\n<code>/link &lt;code&gt;</code>", true)
		return nil
	case text == btnMyReminders || text == "/reminders":
		return s.sendReminders(ctx, chatID)
	default:
		s.reply(chatID, "Unknown command. Use <code>/link &lt;code&gt;</code> or the menu button.", false)
		return nil
	}
}

func (s *telegramLinkService) link(ctx context.Context, chatID int64, raw string) error {
	code, ok := normalizeLinkCode(raw)
	if !ok {
		s.reply(chatID, "Invalid code format. Send exactly 32 hex characters:\n<code>/link 0123456789ABCDEF0123456789ABCDEF</code>", false)
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	link, err := s.links.UseByCode(ctx, code, s.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.reply(chatID, "The code is invalid or has expired. Generate a new one in the app.", false)
			return nil
		}
		s.reply(chatID, "Could not link the account, please try again later.", false)
		return err
	}

	st, err := s.settings.Get(ctx, link.UserID)
	if err != nil {
		s.reply(chatID, "Could not link the account, please try again later.", false)
		return err
	}
	if st == nil {
		st = &models.Settings{OwnerID: link.UserID}
	}
	st.TelegramChatID = chatID
	if err := s.settings.Upsert(ctx, st); err != nil {
		s.reply(chatID, "Could not link the account, please try again later.", false)
		return err
	}
	log.Printf("[tg][link][ok] userID=%d chatID=%d", link.UserID, chatID)
	s.reply(chatID, "Done! Reminder digests will arrive in this chat.", true)
	return nil
}

func (s *telegramLinkService) sendReminders(ctx context.Context, chatID int64) error {
	lookupCtx, cancel := withTimeout(ctx, s.queryTimeout)
	st, err := s.settings.FindByTelegramChat(lookupCtx, chatID)
	cancel()
	if err != nil {
		return err
	}
	if st == nil {
		s.reply(chatID, "This chat is not linked yet. Use <code>/link &lt;code&gt;</code>.", false)
		return nil
	}

	sess := models.Session{UserID: st.OwnerID, Location: s.loc}
	due, err := s.tasks.Reminders(ctx, sess)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		s.reply(chatID, "Nothing due today. 👍", true)
		return nil
	}
	n := eventtime.New(s.loc)
	var b strings.Builder
	b.WriteString("<b>Reminders</b>\n")
	for _, t := range due {
		b.WriteString("• " + html.EscapeString(reminderLine(n, t)) + "\n")
	}
	s.reply(chatID, b.String(), true)
	return nil
}

func (s *telegramLinkService) reply(chatID int64, text string, withMenu bool) {
	var err error
	if withMenu {
		err = s.tg.SendReplyKeyboard(chatID, text, [][]string{{btnMyReminders}})
	} else {
		err = s.tg.SendMessage(chatID, text)
	}
	if err != nil {
		log.Printf("[tg][reply][err] chatID=%d: %v", chatID, err)
	}
}
