package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/totegamma/aquamind/internal/infra/database"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := root.load()
			if err != nil {
				return err
			}

			db, err := openDatabase(conf)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("schema up to date", slog.String("storage", conf.Server.Storage), slog.String("module", "main"))
			return nil
		},
	}
}
