package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
)

type TelegramLinkRepository interface {
	Create(ctx context.Context, userID int64, code string, expiresAt time.Time) (*models.TelegramLink, error)
	// UseByCode consumes an unused, unexpired code. Anything else is not found.
	UseByCode(ctx context.Context, code string, now time.Time) (*models.TelegramLink, error)
}

type telegramLinkRepository struct{ db *sql.DB }

func NewTelegramLinkRepository(db *sql.DB) TelegramLinkRepository {
	return &telegramLinkRepository{db: db}
}

const linkColumns = `id, user_id, code, expires_at, used, created_at`

func scanLink(s rowScanner) (*models.TelegramLink, error) {
	var l models.TelegramLink
	if err := s.Scan(&l.ID, &l.UserID, &l.Code, &l.ExpiresAt, &l.Used, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *telegramLinkRepository) Create(ctx context.Context, userID int64, code string, expiresAt time.Time) (*models.TelegramLink, error) {
	l, err := scanLink(r.db.QueryRowContext(ctx, `
		INSERT INTO telegram_links (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+linkColumns, userID, code, expiresAt))
	if err != nil {
		return nil, wrapErr("create telegram link", err)
	}
	return l, nil
}

func (r *telegramLinkRepository) UseByCode(ctx context.Context, code string, now time.Time) (*models.TelegramLink, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("use telegram link", err)
	}
	defer tx.Rollback()

	l, err := scanLink(tx.QueryRowContext(ctx, `
		SELECT `+linkColumns+`
		FROM telegram_links
		WHERE code = $1
		FOR UPDATE`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("link code not found")
		}
		return nil, wrapErr("use telegram link", err)
	}
	if l.Used || now.After(l.ExpiresAt) {
		return nil, apperr.NotFound("link code expired or used")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE telegram_links SET used = TRUE WHERE id = $1`, l.ID); err != nil {
		return nil, wrapErr("use telegram link", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapErr("use telegram link", err)
	}
	l.Used = true
	return l, nil
}
