package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dangerclosesec/orgaccess"
	"github.com/dangerclosesec/orgaccess/internal/audit"
	"github.com/dangerclosesec/orgaccess/internal/auth"
	"github.com/dangerclosesec/orgaccess/internal/config"
	"github.com/dangerclosesec/orgaccess/internal/database"
	"github.com/dangerclosesec/orgaccess/internal/migration"
	"github.com/dangerclosesec/orgaccess/internal/repository"
	"github.com/dangerclosesec/orgaccess/internal/service"
	"github.com/dangerclosesec/orgaccess/internal/worker"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	dbConnString string
	timeout      time.Duration
	tokenTTL     time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbConnString, "db", "d", "", "Database connection string (defaults to the configured database)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Deadline for the command")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to jwt.expiry_period)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(tokenCmd)
}

var rootCmd = &cobra.Command{
	Use:   "orgctl",
	Short: "orgctl administers the organization access-control service",
	Long:  `orgctl applies database migrations, expires stale invitations and issues development tokens.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		dsn, err := resolveDSN()
		if err != nil {
			return err
		}
		db, err := migration.Open(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := migration.NewMigrator(db, orgaccess.MigrationsFS, "migrations").Up(ctx)
		if err != nil {
			return fmt.Errorf("migration failed after %d applied: %w", n, err)
		}
		if n == 0 {
			fmt.Println("No pending migrations.")
			return nil
		}
		fmt.Printf("Applied %d migration(s)\n", n)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		dsn, err := resolveDSN()
		if err != nil {
			return err
		}
		db, err := migration.Open(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		m := migration.NewMigrator(db, orgaccess.MigrationsFS, "migrations")
		if err := m.InitializeSchema(ctx); err != nil {
			return err
		}
		version, err := m.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current version: %w", err)
		}
		fmt.Printf("Current schema version: %d\n", version)
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-invitations",
	Short: "Mark pending invitations past their expiry as expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		dsn, err := resolveDSN()
		if err != nil {
			return err
		}
		db, err := database.Open(ctx, dsn, database.Options{MaxOpenConns: 2})
		if err != nil {
			return err
		}

		invitations := service.NewInvitationService(
			repository.NewInvitationRepository(db),
			repository.NewUserRepository(db),
			repository.NewOrganizationRepository(db),
			nil,
			audit.NoOpRecorder{},
			"",
		)

		sweeper, err := worker.NewInvitationSweeper(invitations, "@hourly")
		if err != nil {
			return err
		}
		n, err := sweeper.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Expired %d invitation(s)\n", n)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [user-id] [email]",
	Short: "Issue a bearer token for a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ttl := cfg.JWT.ExpiryPeriod
		if tokenTTL > 0 {
			ttl = tokenTTL
		}

		token, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, ttl).Generate(userID, args[1])
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func resolveDSN() (string, error) {
	if dbConnString != "" {
		return dbConnString, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	return cfg.DSN(), nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
