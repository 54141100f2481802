package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovo-dev/renovo/internal/platform/auth"
)

// Notifier dispatches templated email in the background.
type Notifier interface {
	SendAsync(templateID string, data map[string]string, recipient string)
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger

	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewService(repo Repository, notifier Notifier, jwtSecret []byte, jwtTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, jwtSecret: jwtSecret, jwtTTL: jwtTTL, logger: logger}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Register creates a new account with the user role and sends a welcome
// email in the background.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	u := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         auth.RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SendAsync("welcome", map[string]string{"name": u.Name}, u.Email)
	}
	return u, nil
}

// Login checks credentials and issues an access token. Blocked accounts are
// rejected; a block whose expiry has passed no longer applies.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrNotFound {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	if u.BlockedNow(time.Now()) {
		return "", nil, ErrBlocked
	}

	token, err := auth.IssueToken(s.jwtSecret, s.jwtTTL, u.ID.String(), u.Role, u.Email)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}
	return token, u, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

type UpdateProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateProfile edits the caller's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Phone = strings.TrimSpace(in.Phone)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all users, newest first. Admin only, enforced at the route.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Block marks a user as blocked, optionally until a given time.
func (s *Service) Block(ctx context.Context, id uuid.UUID, until *time.Time) error {
	if until != nil && !until.After(time.Now()) {
		return fmt.Errorf("%w: blocked_until must be in the future", ErrValidation)
	}
	return s.repo.SetBlocked(ctx, id, true, until)
}

// Unblock lifts a block.
func (s *Service) Unblock(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetBlocked(ctx, id, false, nil)
}

// Contact resolves the name and email for a user ID. The consultation
// workflow uses it to address notifications.
func (s *Service) Contact(ctx context.Context, id uuid.UUID) (string, string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return u.Name, u.Email, nil
}
