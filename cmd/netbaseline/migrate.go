package main

import (
	"fmt"

	"netbaseline/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var rollback int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if rollback > 0 {
				err = database.Rollback(cmd.Context(), &cfg.Database, rollback, log)
			} else {
				err = database.Migrate(cmd.Context(), &cfg.Database, log)
			}
			if err != nil {
				return err
			}

			version, dirty, err := database.MigrationVersion(cmd.Context(), &cfg.Database, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().IntVar(&rollback, "rollback", 0, "Revert this many migrations instead of applying")

	return cmd
}
