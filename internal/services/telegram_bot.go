package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the subset of *tgbotapi.BotAPI we call.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramService struct {
	bot botAPI
}

// NewTelegramService authorizes the bot token. An empty token yields a
// service that skips every send.
func NewTelegramService(botToken string) (*TelegramService, error) {
	if botToken == "" {
		return &TelegramService{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot}, nil
}

// Enabled reports whether a bot token was configured.
func (t *TelegramService) Enabled() bool {
	return t != nil && t.bot != nil
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	return t.send(chatID, text, nil)
}

// SendReplyKeyboard sends text with a persistent keyboard under the input
// field, one row per slice.
func (t *TelegramService) SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, labels := range keyboard {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, l := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(l))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	return t.send(chatID, text, kb)
}

func (t *TelegramService) send(chatID int64, text string, markup any) error {
	if t == nil || t.bot == nil || chatID == 0 {
		log.Printf("[tg][skip] bot or chatID empty (bot? %v chatID=%d)", t != nil && t.bot != nil, chatID)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	log.Printf("[tg][send] chatID=%d len=%d keyboard=%v", chatID, len(text), markup != nil)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] chatID=%d: %v", chatID, err)
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}
