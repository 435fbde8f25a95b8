package services

import (
	"context"
	"log"
	"strings"
	"time"

	"taskcal/internal/apperr"
	"taskcal/internal/repositories"
	"taskcal/internal/utils"
)

const resetTokenTTL = time.Hour

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	users        repositories.UserRepository
	repo         repositories.PasswordResetRepository
	emails       EmailService
	queryTimeout time.Duration
	now          func() time.Time
}

// NewPasswordResetService wires the reset flow. emails may be nil, in which
// case tokens are created but never delivered.
func NewPasswordResetService(users repositories.UserRepository, repo repositories.PasswordResetRepository, emails EmailService, queryTimeout time.Duration) PasswordResetService {
	return &passwordResetService{
		users:        users,
		repo:         repo,
		emails:       emails,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return apperr.Validation("email is required")
	}

	lookupCtx, cancel := withTimeout(ctx, s.queryTimeout)
	user, err := s.users.GetByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// don't leak existence
			log.Printf("[password-reset] request for unknown email=%q", email)
			return nil
		}
		return err
	}

	token, err := utils.NewRefreshToken(32)
	if err != nil {
		return err
	}
	ctx, cancel = withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if _, err := s.repo.Create(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if s.emails == nil {
		log.Printf("[password-reset] email disabled, token for userID=%d not delivered", user.ID)
		return nil
	}
	if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
		log.Printf("[password-reset] failed to send email to %s: %v", user.Email, err)
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return apperr.Validation("token and password are required")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	pr, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Auth("invalid or expired token")
		}
		return err
	}
	if pr.UsedAt != nil {
		return apperr.Auth("token already used")
	}
	if s.now().After(pr.ExpiresAt) {
		return apperr.Auth("token expired")
	}

	if err := s.repo.Consume(ctx, pr.ID, hash); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Auth("token already used")
		}
		return err
	}
	log.Printf("[password-reset][ok] userID=%d", pr.UserID)
	return nil
}
