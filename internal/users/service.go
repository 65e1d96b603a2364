package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/models"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the registration fields.
type CreateInput struct {
	Email    string
	Password string
	Name     string
}

// UpdateInput holds the profile fields a user may change on their own
// account. Nil fields are left as they are.
type UpdateInput struct {
	Email    *string
	Name     *string
	Password *string
}

// NormalizeEmail lowercases the domain part and leaves the local part alone.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// Create registers an active, non-staff user.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser registers a user with staff and superuser flags set.
func (s *Service) CreateSuperuser(ctx context.Context, in CreateInput) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *Service) create(ctx context.Context, in CreateInput, superuser bool) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:       email,
		Password:    hash,
		Name:        in.Name,
		IsActive:    true,
		IsStaff:     superuser,
		IsSuperuser: superuser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("user created", "user_id", u.ID, "email", u.Email, "superuser", superuser)
	return u, nil
}

// Authenticate returns the active user matching email and password, or
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !u.IsActive || !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// Update applies a profile change. Staff flags are not reachable from here.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email == "" {
			return nil, ErrEmailRequired
		}
		u.Email = email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetOrCreateExternal finds the user signed in through an OAuth provider, or
// registers one with an unusable password.
func (s *Service) GetOrCreateExternal(ctx context.Context, email, name string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if !u.IsActive {
			return nil, ErrInvalidCredentials
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup external user: %w", err)
	}

	u = &models.User{
		Email:    email,
		Password: unusablePassword,
		Name:     name,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("user created from oauth", "user_id", u.ID, "email", u.Email)
	return u, nil
}
