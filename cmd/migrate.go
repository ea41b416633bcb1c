package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the donations schema for the configured database driver",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	db, cleanup := mustOpenDB(cfg)
	defer cleanup()

	dialect := repository.Dialect(cfg.Database.Driver)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := repository.Migrate(ctx, db, dialect); err != nil {
		logrus.WithError(err).WithField("driver", cfg.Database.Driver).Fatal("Migration failed")
	}
	logrus.WithField("driver", cfg.Database.Driver).Info("Schema is up to date")
}
