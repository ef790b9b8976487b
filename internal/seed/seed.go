package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/config"
	"github.com/yigit/kebele/internal/pkg/auth"
)

// AdminStore is the slice of the user repository the seed needs
type AdminStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *appModels.User) error
}

// CreateDefaultAdmin creates the configured staff account when it does not
// exist yet. An empty admin username or password disables seeding.
func CreateDefaultAdmin(ctx context.Context, users AdminStore, cfg *config.Config, lgr zerolog.Logger) error {
	admin := cfg.Admin
	if admin.Username == "" || admin.Password == "" {
		lgr.Info().Msg("No default admin configured, skipping seed")
		return nil
	}

	exists, err := users.UsernameExists(ctx, admin.Username)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		lgr.Info().Str("username", admin.Username).Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	fullName := admin.FullName
	if fullName == "" {
		fullName = admin.Username
	}
	user := &appModels.User{
		Username: admin.Username,
		Email:    admin.Email,
		Password: hashedPassword,
		FullName: fullName,
		IsAdmin:  true,
	}
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	lgr.Info().Int64("adminID", user.ID).Str("username", user.Username).Msg("Default admin user created")
	return nil
}
