package main

import (
	"context"
	"fmt"
	"os"
	"time"

	mongoMigration "appointly/internal/migrations/mongo"
	usersrepo "appointly/internal/users/repository"
	"appointly/pkg/auth"
	"appointly/pkg/config"
	"appointly/pkg/validation"

	"github.com/urfave/cli/v2"
)

const JobName = "appointly-migrate"

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "database operations for the appointly API",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 120 * time.Second,
				Usage: "overall deadline for the command",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "ensure collections, validators and indexes",
				Action: up,
			},
			{
				Name:  "create-admin",
				Usage: "create the platform admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: createAdminCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(c *cli.Context) (*config.Config, context.Context, context.CancelFunc) {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	return cfg, ctx, cancel
}

func up(c *cli.Context) error {
	cfg, ctx, cancel := connect(c)
	defer cancel()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func createAdminCommand(c *cli.Context) error {
	cfg, ctx, cancel := connect(c)
	defer cancel()
	defer cfg.GracefulShutdown()

	admin, created, err := createAdmin(ctx,
		usersrepo.NewMongoPrincipalRepository(cfg),
		auth.NewHasher(cfg.BcryptCost),
		validation.New(cfg.Log),
		adminRequest{Name: c.String("name"), Email: c.String("email"), Password: c.String("password")},
	)
	if err != nil {
		return err
	}
	if !created {
		cfg.Log.Info("Admin already exists", "id", admin.ID, "email", admin.Email)
		return nil
	}
	cfg.Log.Info("Admin created successfully", "id", admin.ID, "email", admin.Email)
	return nil
}
