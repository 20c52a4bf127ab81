package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garagehub/garagehub/internal/platform/db"
	"github.com/garagehub/garagehub/internal/shared"
)

// Repository defines persistence used by the auth service.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	CreateUserWithProfile(ctx context.Context, user User, companyID int64, role string) (int64, error)
	CreateCompanyWithAdmin(ctx context.Context, companyName string, user User) (int64, int64, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository persists auth data in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail loads a user account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT id, email, name, password_hash, is_active, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetProfile loads the tenant profile for a user.
func (r *PGRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, company_id, role, created_at FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.CompanyID, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
	return err
}

// CreateUserWithProfile inserts a user and its profile atomically.
func (r *PGRepository) CreateUserWithProfile(ctx context.Context, user User, companyID int64, role string) (int64, error) {
	var userID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES ($1, $2, $3, TRUE, NOW(), NOW()) RETURNING id`,
			user.Email, user.Name, user.PasswordHash).Scan(&userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO profiles (user_id, company_id, role, created_at) VALUES ($1, $2, $3, NOW())`, userID, companyID, role)
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// CreateCompanyWithAdmin bootstraps a company together with its first admin.
func (r *PGRepository) CreateCompanyWithAdmin(ctx context.Context, companyName string, user User) (int64, int64, error) {
	var companyID, userID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO companies (name, created_at) VALUES ($1, NOW()) RETURNING id`, companyName).Scan(&companyID); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES ($1, $2, $3, TRUE, NOW(), NOW()) RETURNING id`,
			user.Email, user.Name, user.PasswordHash).Scan(&userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO profiles (user_id, company_id, role, created_at) VALUES ($1, $2, $3, NOW())`, userID, companyID, shared.RoleAdmin)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return companyID, userID, nil
}

// CreateSession persists session metadata.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, expires_at, ip, user_agent, created_at) VALUES ($1, $2, $3, $4, $5, NOW())`, id, userID, expiresAt, ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
