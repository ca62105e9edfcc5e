package cmd

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp(cfg, logger)
			if err := a.migrations().Migrate(cmd.Context(), a.databaseConfig()); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}
