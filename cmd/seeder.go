package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	authPostgres "github.com/frahmantamala/asset-inventory/internal/auth/postgres"
	"github.com/frahmantamala/asset-inventory/internal/core/database"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/location"
	locationPostgres "github.com/frahmantamala/asset-inventory/internal/location/postgres"
	"github.com/frahmantamala/asset-inventory/internal/permission"
	permissionPostgres "github.com/frahmantamala/asset-inventory/internal/permission/postgres"
	userPostgres "github.com/frahmantamala/asset-inventory/internal/user/postgres"
	"github.com/frahmantamala/asset-inventory/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	seedAdminEmail    string
	seedAdminName     string
	seedAdminPassword string
	seedSamples       bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed permissions, default roles and the first administrator",
	Long: `Installs every permission key the service checks, the administrator,
technician and viewer roles, and an administrator account. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		sqlxDB, db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		if err := runSeed(context.Background(), db, cfg.Security.BCryptCost); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

func runSeed(ctx context.Context, db *gorm.DB, bcryptCost int) error {
	lg := logger.LoggerWrapper()
	permSvc := permission.NewService(permissionPostgres.NewPermissionRepository(db), nil, lg)

	if err := permSvc.EnsureRegistry(ctx); err != nil {
		return fmt.Errorf("permissions: %w", err)
	}
	fmt.Printf("Seeded %d permissions\n", len(permission.Registry))

	var adminRole *permission.Role
	for _, def := range permission.DefaultRoles() {
		r, err := permSvc.EnsureRole(ctx, def)
		if err != nil {
			return fmt.Errorf("role %s: %w", def.Name, err)
		}
		if def.Name == "administrator" {
			adminRole = r
		}
		fmt.Printf("Seeded role %s with %d permissions\n", r.Name, len(r.Permissions))
	}

	adminID, err := ensureAdmin(ctx, db, bcryptCost)
	if err != nil {
		return err
	}
	if err := permSvc.AssignRole(ctx, 0, adminID, adminRole.ID); err != nil {
		return fmt.Errorf("assign administrator: %w", err)
	}
	fmt.Println("Granted administrator role to:", seedAdminEmail)

	if seedSamples {
		return seedLocations(ctx, db)
	}
	return nil
}

func ensureAdmin(ctx context.Context, db *gorm.DB, bcryptCost int) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(seedAdminEmail))
	existing, err := authPostgres.NewRepository(db).GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		fmt.Println("admin user already exists; will ensure role:", email)
		return existing.ID, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcryptCost)
	if err != nil {
		return 0, err
	}

	u := &userDatamodel.User{Email: email, Name: seedAdminName, PasswordHash: string(hash), IsActive: true}
	if err := userPostgres.NewUserRepository(db).Create(ctx, u); err != nil {
		return 0, fmt.Errorf("failed to insert admin user: %w", err)
	}
	fmt.Println("Seeded admin user:", email)
	return u.ID, nil
}

func seedLocations(ctx context.Context, db *gorm.DB) error {
	svc := location.NewService(locationPostgres.NewLocationRepository(db), nil, logger.LoggerWrapper())
	samples := []location.CreateLocationDTO{
		{Name: "Head Office", Address: "Main building", Description: "Default storage room"},
		{Name: "Server Room", Description: "Racks and network gear"},
		{Name: "Repair Bench", Description: "Assets waiting for maintenance"},
	}
	for _, dto := range samples {
		_, err := svc.Create(ctx, 0, dto)
		if err == nil {
			fmt.Println("Seeded location:", dto.Name)
			continue
		}
		if !errors.Is(err, location.ErrDuplicateName) {
			return fmt.Errorf("location %s: %w", dto.Name, err)
		}
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@example.com", "email of the administrator account")
	seedCmd.Flags().StringVar(&seedAdminName, "admin-name", "Administrator", "display name of the administrator account")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "change-me-now", "initial password of the administrator account")
	seedCmd.Flags().BoolVar(&seedSamples, "samples", false, "also create sample locations")
}
