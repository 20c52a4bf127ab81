package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/garagehub/garagehub/internal/auth"
	"github.com/garagehub/garagehub/internal/shared"
)

type stubRepo struct {
	users    map[string]*auth.User
	profiles map[int64]*auth.Profile
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[string]*auth.User{}, profiles: map[int64]*auth.Profile{}, nextID: 1}
}

func (s *stubRepo) addUser(t *testing.T, email, password string, companyID int64, role string, active bool) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &auth.User{ID: s.nextID, Email: email, Name: email, PasswordHash: string(hash), IsActive: active}
	s.users[email] = u
	s.profiles[u.ID] = &auth.Profile{ID: s.nextID, UserID: u.ID, CompanyID: companyID, Role: role}
	s.nextID++
	return u
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) GetProfile(ctx context.Context, userID int64) (*auth.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	for _, u := range s.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubRepo) CreateUserWithProfile(ctx context.Context, user auth.User, companyID int64, role string) (int64, error) {
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = &user
	s.profiles[user.ID] = &auth.Profile{UserID: user.ID, CompanyID: companyID, Role: role}
	return user.ID, nil
}

func (s *stubRepo) CreateCompanyWithAdmin(ctx context.Context, companyName string, user auth.User) (int64, int64, error) {
	id, err := s.CreateUserWithProfile(ctx, user, 1, shared.RoleAdmin)
	return 1, id, err
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "mech@shop.test", "s3cret", 4, shared.RoleUser, true)
	svc := auth.NewService(repo)

	user, profile, err := svc.Authenticate(context.Background(), "mech@shop.test", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "mech@shop.test", user.Email)
	require.Equal(t, int64(4), profile.CompanyID)
}

func TestAuthenticateRejectsBadPassword(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "mech@shop.test", "s3cret", 4, shared.RoleUser, true)
	svc := auth.NewService(repo)

	_, _, err := svc.Authenticate(context.Background(), "mech@shop.test", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "mech@shop.test", "s3cret", 4, shared.RoleUser, false)
	svc := auth.NewService(repo)

	_, _, err := svc.Authenticate(context.Background(), "mech@shop.test", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRequiresProfile(t *testing.T) {
	repo := newStubRepo()
	u := repo.addUser(t, "orphan@shop.test", "s3cret", 4, shared.RoleUser, true)
	delete(repo.profiles, u.ID)
	svc := auth.NewService(repo)

	_, _, err := svc.Authenticate(context.Background(), "orphan@shop.test", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo)

	input := auth.CreateUserInput{Email: "new@shop.test", Name: "New", Password: "pw123456", Role: shared.RoleUser}

	_, err := svc.CreateUser(context.Background(), shared.Scope{UserID: 1, CompanyID: 4, Role: shared.RoleUser}, input)
	require.Error(t, err)

	id, err := svc.CreateUser(context.Background(), shared.Scope{UserID: 1, CompanyID: 4, Role: shared.RoleAdmin}, input)
	require.NoError(t, err)
	require.NotZero(t, id)
	require.Equal(t, int64(4), repo.profiles[id].CompanyID)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "taken@shop.test", "s3cret", 4, shared.RoleUser, true)
	svc := auth.NewService(repo)

	_, err := svc.CreateUser(context.Background(), shared.Scope{UserID: 1, CompanyID: 4, Role: shared.RoleAdmin},
		auth.CreateUserInput{Email: "taken@shop.test", Name: "Dup", Password: "pw123456", Role: shared.RoleUser})
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestRotatePassword(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "mech@shop.test", "old-pass", 4, shared.RoleUser, true)
	svc := auth.NewService(repo)

	require.ErrorIs(t, svc.RotatePassword(context.Background(), "mech@shop.test", "nope", "new-pass"), shared.ErrInvalidCredentials)
	require.NoError(t, svc.RotatePassword(context.Background(), "mech@shop.test", "old-pass", "new-pass"))

	_, _, err := svc.Authenticate(context.Background(), "mech@shop.test", "new-pass")
	require.NoError(t, err)
}
