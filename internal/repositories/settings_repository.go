package repositories

import (
	"context"
	"database/sql"
	"errors"

	"taskcal/internal/models"
)

type SettingsRepository interface {
	// Get returns nil, nil when the owner has never saved settings.
	Get(ctx context.Context, ownerID int64) (*models.Settings, error)
	Upsert(ctx context.Context, s *models.Settings) error
	ListNotifiable(ctx context.Context) ([]models.NotifyTarget, error)
	// FindByTelegramChat returns nil, nil when no account is linked to chatID.
	FindByTelegramChat(ctx context.Context, chatID int64) (*models.Settings, error)
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, ownerID int64) (*models.Settings, error) {
	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, hourly_wage, fixed_salary, notify_email, telegram_chat_id, updated_at
		FROM settings WHERE owner_id = $1`, ownerID,
	).Scan(&s.OwnerID, &s.HourlyWage, &s.FixedSalary, &s.NotifyEmail, &s.TelegramChatID, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get settings", err)
	}
	return s, nil
}

func (r *settingsRepository) FindByTelegramChat(ctx context.Context, chatID int64) (*models.Settings, error) {
	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, hourly_wage, fixed_salary, notify_email, telegram_chat_id, updated_at
		FROM settings WHERE telegram_chat_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, chatID,
	).Scan(&s.OwnerID, &s.HourlyWage, &s.FixedSalary, &s.NotifyEmail, &s.TelegramChatID, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find settings by chat", err)
	}
	return s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO settings (owner_id, hourly_wage, fixed_salary, notify_email, telegram_chat_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (owner_id) DO UPDATE SET
			hourly_wage = EXCLUDED.hourly_wage,
			fixed_salary = EXCLUDED.fixed_salary,
			notify_email = EXCLUDED.notify_email,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			updated_at = NOW()
		RETURNING updated_at`,
		s.OwnerID, s.HourlyWage, s.FixedSalary, s.NotifyEmail, s.TelegramChatID,
	).Scan(&s.UpdatedAt)
	return wrapErr("upsert settings", err)
}

func (r *settingsRepository) ListNotifiable(ctx context.Context) ([]models.NotifyTarget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, s.hourly_wage, s.fixed_salary, s.notify_email, s.telegram_chat_id, s.updated_at
		FROM settings s
		JOIN users u ON u.id = s.owner_id
		WHERE s.notify_email OR s.telegram_chat_id <> 0
		ORDER BY u.id`)
	if err != nil {
		return nil, wrapErr("list notifiable", err)
	}
	defer rows.Close()

	var out []models.NotifyTarget
	for rows.Next() {
		var t models.NotifyTarget
		if err := rows.Scan(&t.UserID, &t.Email, &t.Settings.HourlyWage, &t.Settings.FixedSalary,
			&t.Settings.NotifyEmail, &t.Settings.TelegramChatID, &t.Settings.UpdatedAt); err != nil {
			return nil, wrapErr("scan notifiable", err)
		}
		t.Settings.OwnerID = t.UserID
		out = append(out, t)
	}
	return out, wrapErr("list notifiable", rows.Err())
}
