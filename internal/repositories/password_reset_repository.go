package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	// Consume claims the token and stores the new password hash in one step,
	// revoking the owner's refresh token. A token that was already used is not found.
	Consume(ctx context.Context, id int64, passwordHash string) error
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	const q = `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	pr := &models.PasswordReset{UserID: userID, Token: token, ExpiresAt: expiresAt}
	if err := r.DB.QueryRowContext(ctx, q, userID, token, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, wrapErr("create password reset", err)
	}
	return pr, nil
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	const q = `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1`
	pr := &models.PasswordReset{}
	var usedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, token).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("reset token not found")
		}
		return nil, wrapErr("get password reset", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, id int64, passwordHash string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("consume password reset", err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE password_resets SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL
		RETURNING user_id`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("reset token not found")
		}
		return wrapErr("consume password reset", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, refresh_token = NULL, refresh_expires_at = NULL, refresh_revoked = TRUE
		WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return wrapErr("update password", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("user not found")
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("consume password reset", err)
	}
	return nil
}
