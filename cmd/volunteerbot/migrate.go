package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	applied, err := a.storage.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	status, err := a.storage.Status(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	out := cmd.OutOrStdout()
	if applied {
		fmt.Fprintf(out, "%s database now at version %s\n", color.GreenString("migrated:"), status.CurrentVersion)
		return nil
	}
	fmt.Fprintf(out, "%s database already at version %s\n", color.CyanString("up to date:"), status.CurrentVersion)
	return nil
}
