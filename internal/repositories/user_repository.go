package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
}

const userColumns = `id, email, password_hash, refresh_token, refresh_expires_at, refresh_revoked, created_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func scanUser(s rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		rt  sql.NullString
		rte sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &rt, &rte, &u.RefreshRevoked, &u.CreatedAt); err != nil {
		return nil, err
	}
	if rt.Valid {
		tok := rt.String
		u.RefreshToken = &tok
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

func (r *userRepository) getOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, wrapErr(op, err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (email, password_hash, refresh_revoked)
		VALUES ($1, $2, FALSE)
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, q, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return wrapErr("create user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "get user", "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "get user by email", "email = $1", email)
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "get user by refresh", "refresh_token = $1", token)
}

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = $1, refresh_expires_at = $2, refresh_revoked = FALSE
		WHERE id = $3`, token, expiresAt, userID)
	return wrapErr("update refresh", err)
}

// RotateRefresh swaps oldToken for newToken atomically; a reused or revoked
// token matches no row and yields a not-found error.
func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `
		UPDATE users
		SET refresh_token = $1, refresh_expires_at = $2
		WHERE refresh_token = $3 AND NOT refresh_revoked
		RETURNING `+userColumns, newToken, newExpiresAt, oldToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("refresh token not found")
		}
		return nil, wrapErr("rotate refresh", err)
	}
	return u, nil
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = NULL, refresh_expires_at = NULL, refresh_revoked = TRUE
		WHERE id = $1`, userID)
	return wrapErr("clear refresh", err)
}
