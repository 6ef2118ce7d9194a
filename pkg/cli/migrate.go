package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/database"
	"github.com/ekaya-inc/menu-etl/pkg/logging"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the menu table in PostgreSQL (PGHOST and friends).",
		Long: "Create the menu table in PostgreSQL. Works for the postgres driver and for a\n" +
			"Supabase project reached through its direct database connection.\n" +
			"The sqlite driver creates its table on open and needs no migration.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg := a.cfg.Store.Database
			if dbCfg.Host == "" {
				return fmt.Errorf("migrate needs a PostgreSQL connection: set PGHOST")
			}

			connStr := dbCfg.ConnectionString()
			a.logger.Info("Connecting to database",
				zap.String("url", logging.SanitizeConnectionString(connStr)))

			db, err := database.NewConnection(cmd.Context(), &database.Config{URL: connStr})
			if err != nil {
				return err
			}
			defer db.Close()

			sqlDB := db.StdDB()
			defer sqlDB.Close()

			if err := database.RunMigrations(sqlDB, a.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}
