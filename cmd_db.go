package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobfill/config"
	"jobfill/database"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the candidate profile database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the profile tables",
	RunE:  runDBMigrate,
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection and list the profile tables",
	RunE:  runDBCheck,
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd, dbCheckCmd)
	rootCmd.AddCommand(dbCmd)
}

func databaseConfig() (config.DatabaseConfig, error) {
	cfg := config.GetAppConfig().Database
	if !cfg.Enabled() {
		return cfg, fmt.Errorf("DB_NAME is not set")
	}
	return cfg, nil
}

func runDBMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := databaseConfig()
	if err != nil {
		return err
	}
	db, err := database.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile tables ready: %s\n", strings.Join(database.ProfileTables, ", "))
	return nil
}

func runDBCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := databaseConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connecting with: %s\n", database.MaskDSN(cfg.DSN()))

	db, err := database.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Fprintln(out, "Database connection successful")

	tables, err := database.CheckTables(cmd.Context(), db)
	if err != nil {
		return err
	}
	missing := 0
	for _, t := range tables {
		if !t.Exists {
			missing++
			fmt.Fprintf(out, "  %-16s missing\n", t.Name)
			continue
		}
		fmt.Fprintf(out, "  %-16s %d columns\n", t.Name, len(t.Columns))
	}
	if missing > 0 {
		return fmt.Errorf("%d profile tables missing, run `jobfill db migrate`", missing)
	}
	return nil
}
