package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/court-reservations/internal/auth"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
)

type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

type AuthService struct {
	users  UserStore
	tokens *auth.TokenIssuer
	logger observability.Logger
}

func NewAuthService(users UserStore, tokens *auth.TokenIssuer, logger observability.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.TrimSpace(name) == "" {
		return domain.User{}, domain.Validationf("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, domain.Validationf("email is invalid")
	}
	if len(password) < auth.MinPasswordLength {
		return domain.User{}, domain.Validationf("password must have at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "hash password")
	}
	u, err := s.users.CreateUser(ctx, domain.User{Name: strings.TrimSpace(name), Email: email, PasswordHash: hash})
	if err != nil {
		return domain.User{}, err
	}
	s.logger.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login checks the credentials and issues a bearer token. Unknown email and wrong
// password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return "", errors.Mark(errors.New("invalid credentials"), domain.ErrUnauthorized)
	}
	if err != nil {
		return "", err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return "", errors.Mark(errors.New("invalid credentials"), domain.ErrUnauthorized)
	}
	return s.tokens.Issue(u.ID, u.Email)
}

// Authenticate resolves a bearer token to a user id.
func (s *AuthService) Authenticate(token string) (int64, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "invalid token"), domain.ErrUnauthorized)
	}
	return claims.UserID()
}
