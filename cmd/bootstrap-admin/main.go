// Command bootstrap-admin provisions or repairs the administrative account.
// It tries the target password first, then rotates from a prior password,
// and finally creates the company and admin user from scratch.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/garagehub/garagehub/internal/app"
	"github.com/garagehub/garagehub/internal/auth"
	"github.com/garagehub/garagehub/internal/platform/db"
	"github.com/garagehub/garagehub/internal/shared"
	"github.com/garagehub/garagehub/migrations"
)

func main() {
	_ = godotenv.Load()

	var (
		company  = flag.String("company", "GarageHub", "company name to create when bootstrapping")
		email    = flag.String("email", "admin@garagehub.local", "admin email")
		name     = flag.String("name", "Administrator", "admin display name")
		password = flag.String("password", "", "target admin password (required)")
		prior    = flag.String("prior-password", "", "previous password to rotate from, if known")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *password == "" {
		logger.Error("password flag is required")
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.PGDSN, migrations.FS); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	service := auth.NewService(auth.NewRepository(pool))

	// already usable with the target password?
	if user, profile, err := service.Authenticate(ctx, *email, *password); err == nil {
		logger.Info("admin account already in place",
			slog.Int64("user_id", user.ID),
			slog.Int64("company_id", profile.CompanyID),
		)
		return
	}

	// known prior password: rotate instead of recreating
	if *prior != "" {
		err := service.RotatePassword(ctx, *email, *prior, *password)
		if err == nil {
			logger.Info("admin password rotated", slog.String("email", *email))
			return
		}
		if !errors.Is(err, shared.ErrInvalidCredentials) && !errors.Is(err, shared.ErrNotFound) {
			logger.Error("rotate password", slog.Any("error", err))
			os.Exit(1)
		}
	}

	companyID, userID, err := service.BootstrapAdmin(ctx, *company, *email, *name, *password)
	if err != nil {
		logger.Error("bootstrap admin", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("admin account created",
		slog.Int64("company_id", companyID),
		slog.Int64("user_id", userID),
		slog.String("email", *email),
	)
}
