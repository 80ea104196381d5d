package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"news-verifier/database"
	"news-verifier/models"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooLong    = fmt.Errorf("password longer than %d bytes", maxPasswordBytes)
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore keeps accounts. Lookups of unknown emails fail with
// database.ErrNotFound and duplicate inserts with database.ErrDuplicate.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AccountService registers users and checks their passwords. store may be
// nil, in which case every call fails with ErrNoStore.
type AccountService struct {
	// Cost is the bcrypt work factor used for new hashes.
	Cost int

	store UserStore
}

func NewAccountService(store UserStore) *AccountService {
	return &AccountService{Cost: bcrypt.DefaultCost, store: store}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) Register(ctx context.Context, c models.Credentials) (*models.User, error) {
	email := normalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return nil, ErrMissingCredentials
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(c.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	if s.store == nil {
		return nil, ErrNoStore
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.CreateUser(ctx, email, string(hash))
	if errors.Is(err, database.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	slog.Info("[AUTH] ✓ user registered", "id", u.ID)
	return u, nil
}

// SignIn returns the user whose password matches. Unknown emails and wrong
// passwords both fail with ErrInvalidCredentials.
func (s *AccountService) SignIn(ctx context.Context, c models.Credentials) (*models.User, error) {
	email := normalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return nil, ErrMissingCredentials
	}
	if s.store == nil {
		return nil, ErrNoStore
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		slog.Info("[AUTH] sign-in rejected", "id", u.ID)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
