package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
	"taskcal/internal/repositories"
	"taskcal/internal/utils"
)

const minPasswordLen = 6

// AuthService owns sign-up, sign-in and the access/refresh token lifecycle.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, *models.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error)
	SignOut(ctx context.Context, userID int64) error
	// ParseAccessToken returns the user id carried by a valid access token.
	ParseAccessToken(token string) (int64, error)
}

type authService struct {
	users        repositories.UserRepository
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	queryTimeout time.Duration
	now          func() time.Time
}

func NewAuthService(users repositories.UserRepository, secret string, accessTTL, refreshTTL, queryTimeout time.Duration) AuthService {
	return &authService{
		users:        users,
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

var errBadCredentials = apperr.Auth("invalid email or password")

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("invalid email address")
	}
	return email, nil
}

// hashPassword enforces the minimum length and returns the bcrypt hash.
func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, PasswordHash: hash}
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			log.Printf("[auth][signup][deny] email taken %q", email)
			return nil, apperr.Auth("email already registered")
		}
		return nil, err
	}
	log.Printf("[auth][signup][ok] userID=%d", user.ID)
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*models.User, *models.Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	lookupCtx, cancel := withTimeout(ctx, s.queryTimeout)
	user, err := s.users.GetByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Printf("[auth][login] unknown email=%q", email)
			return nil, nil, errBadCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[auth][login] bcrypt mismatch for userID=%d", user.ID)
		return nil, nil, errBadCredentials
	}

	access, _, err := utils.IssueAccessToken(s.secret, user.ID, s.accessTTL, s.now())
	if err != nil {
		return nil, nil, err
	}
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel = withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.users.UpdateRefresh(ctx, user.ID, rt, s.now().Add(s.refreshTTL)); err != nil {
		return nil, nil, err
	}
	log.Printf("[auth][login][ok] userID=%d", user.ID)
	return user, &models.Tokens{AccessToken: access, RefreshToken: rt}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	old := strings.TrimSpace(refreshToken)
	if old == "" {
		return nil, apperr.Auth("invalid refresh token")
	}

	lookupCtx, cancel := withTimeout(ctx, s.queryTimeout)
	user, err := s.users.GetByRefreshToken(lookupCtx, old)
	cancel()
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Auth("invalid refresh token")
		}
		return nil, err
	}
	if user.RefreshRevoked || user.RefreshExpiresAt == nil {
		return nil, apperr.Auth("invalid refresh token")
	}
	if s.now().After(*user.RefreshExpiresAt) {
		return nil, apperr.Auth("refresh token expired")
	}

	newRT, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	ctx, cancel = withTimeout(ctx, s.queryTimeout)
	defer cancel()
	rotated, err := s.users.RotateRefresh(ctx, old, newRT, s.now().Add(s.refreshTTL))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Auth("invalid refresh token")
		}
		return nil, err
	}

	access, _, err := utils.IssueAccessToken(s.secret, rotated.ID, s.accessTTL, s.now())
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][refresh][ok] userID=%d", rotated.ID)
	return &models.Tokens{AccessToken: access, RefreshToken: newRT}, nil
}

func (s *authService) SignOut(ctx context.Context, userID int64) error {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.users.ClearRefresh(ctx, userID); err != nil {
		return err
	}
	log.Printf("[auth][logout][ok] userID=%d", userID)
	return nil
}

func (s *authService) ParseAccessToken(token string) (int64, error) {
	claims, err := utils.ParseAccessToken(s.secret, token)
	if err != nil {
		return 0, apperr.Auth("invalid or expired token")
	}
	return claims.UserID, nil
}
