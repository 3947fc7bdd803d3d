package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/volunteer-bot/internal/persistence/sqlite/migration"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.storage.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	printStatus(cmd.OutOrStdout(), status)
	return nil
}

func printStatus(out io.Writer, status migration.Status) {
	fmt.Fprintf(out, "current version: %s\n", status.CurrentVersion)
	for _, version := range status.Applied {
		fmt.Fprintf(out, "  %s  %s\n", color.GreenString("applied"), version)
	}
	for _, m := range status.Pending {
		fmt.Fprintf(out, "  %s  %s %s\n", color.YellowString("pending"), m.Version, m.Name)
	}
	if len(status.Pending) == 0 {
		fmt.Fprintln(out, "no pending migrations")
	}
}
