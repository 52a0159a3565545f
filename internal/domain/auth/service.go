package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	store  UserStore
	secret string
	ttl    time.Duration
}

func NewService(store UserStore, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl}
}

type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
	TenantID    string    `json:"tenantId"`
	Role        string    `json:"role"`
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.issue(user.ID, user.TenantID, user.Role)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}
	return session, nil
}

// Refresh issues a fresh token for an already authenticated principal.
func (s *Service) Refresh(userID, tenantID, role string) (Session, error) {
	if userID == "" || tenantID == "" {
		return Session{}, ErrInvalidToken
	}
	return s.issue(userID, tenantID, role)
}

func (s *Service) issue(userID, tenantID, role string) (Session, error) {
	token, err := GenerateToken(s.secret, Claims{UserID: userID, TenantID: tenantID, Role: role}, s.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.ttl),
		UserID:      userID,
		TenantID:    tenantID,
		Role:        role,
	}, nil
}

func (s *Service) ParseToken(token string) (*Claims, error) {
	return ParseToken(s.secret, token)
}
