package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile links a user to its company and role.
type Profile struct {
	ID        int64
	UserID    int64
	CompanyID int64
	Role      string
	CreatedAt time.Time
}

// Company is the tenant boundary; one deployment serves many shops.
type Company struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
