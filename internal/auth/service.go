package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garagehub/garagehub/internal/shared"
)

// ErrEmailTaken indicates a user with the given email already exists.
var ErrEmailTaken = errors.New("auth: email already registered")

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials and resolves the tenant
// profile. The profile is required: an account without a company is unusable.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, *Profile, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	profile, err := s.repo.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	return user, profile, nil
}

// CreateUserInput describes an account created by a company admin.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// CreateUser registers a new account inside the caller's company.
// Only admins may create accounts.
func (s *Service) CreateUser(ctx context.Context, scope shared.Scope, input CreateUserInput) (int64, error) {
	if !scope.IsAdmin() {
		return 0, errors.New("auth: only administrators can create accounts")
	}
	if input.Role != shared.RoleAdmin && input.Role != shared.RoleUser {
		return 0, fmt.Errorf("auth: unknown role %q", input.Role)
	}
	if existing, err := s.repo.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return 0, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	return s.repo.CreateUserWithProfile(ctx, User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
	}, scope.CompanyID, input.Role)
}

// RotatePassword replaces a user's password after verifying the old one.
func (s *Service) RotatePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// BootstrapAdmin creates a company plus its first administrator account.
// Used by the operational CLI, never exposed over HTTP.
func (s *Service) BootstrapAdmin(ctx context.Context, companyName, email, name, password string) (int64, int64, error) {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return 0, 0, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, 0, err
	}
	return s.repo.CreateCompanyWithAdmin(ctx, companyName, User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	})
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
