package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"compost-backend/internal/config"
	"compost-backend/internal/database"
	"compost-backend/internal/logger"
	"compost-backend/internal/models"
	"compost-backend/internal/services"
)

// env is the database and configuration shared by every subcommand
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *sqlx.DB
}

func openEnv() (*env, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, "console", "compostctl")
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg.DatabaseURL, 2, 1, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.log.Sync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "compostctl",
		Short:         "Administer the compost backend database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedMaterialsCmd(),
		newCreateUserCmd(),
		newDemoDataCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return database.Migrate(e.db, e.log)
		},
	}
}

func newSeedMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-materials",
		Short: "Load the compost material catalog if it is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return database.SeedMaterials(e.db, e.log)
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user account with its profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			users := services.NewUserService(database.NewStore(e.db, e.log), e.cfg.JWTSecret, e.log)
			res, err := users.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Created user %s (%s)\n", res.User.Username, res.User.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Username, "username", "", "login name")
	flags.StringVar(&req.Email, "email", "", "email address")
	flags.StringVar(&req.Password, "password", "", "password, at least 8 characters")
	flags.StringVar(&req.FirstName, "first-name", "", "first name")
	flags.StringVar(&req.LastName, "last-name", "", "last name")
	flags.StringVar(&req.Organization, "organization", "", "organization shown on the profile")
	flags.StringVar(&req.Phone, "phone", "", "phone number")
	for _, name := range []string{"username", "email", "password", "first-name", "last-name"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDemoDataCmd() *cobra.Command {
	var owner string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "demo-data",
		Short: "Create the demo units and a week of readings for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store := database.NewStore(e.db, e.log)
			user, err := store.GetUserByLogin(ctx, owner)
			if err != nil {
				return err
			}

			units := services.NewUnitService(store, store, store, nil, e.cfg.Timezone, e.log)
			demo, err := units.CreateDemoData(ctx, user.ID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(demo)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "username or email of the unit owner")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long")
	cmd.MarkFlagRequired("owner")
	return cmd
}
