package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/core/services"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [source.db]",
	Short: "Copy the local SQLite store into the remote document store",
	Long: `Copy every migratable table of the local SQLite store into the remote
document store. Documents keep the local id as their document id, so references
between collections stay valid. The id mapping, statistics and log files are
written to the migration output directory.

The source defaults to the local database path from the settings document.
Ctrl+C stops after the batch in flight is committed; a second Ctrl+C aborts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		tables, _ := cmd.Flags().GetStringSlice("tables")
		upload, _ := cmd.Flags().GetBool("upload-attachments")
		req := domain.MigrationRequest{DryRun: dryRun, Tables: tables, UploadAttachments: upload}
		if len(args) == 1 {
			req.SourcePath = args[0]
		}

		if !dryRun && !current.settings.IsRemoteConfigured() {
			return apperrors.NewValidationError("remote credentials incomplete, missing %v; run `settings remote` first",
				current.settings.RemoteCredentials().Missing())
		}

		ctx, shouldStop, cancel := interruptible(cmd.Context())
		defer cancel()
		container, err := current.services(ctx, true)
		if err != nil {
			return err
		}
		defer container.Repos.Close()

		res, err := container.Jobs.RunMigration(ctx, req, printProgress(cmd.OutOrStdout()), shouldStop)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), services.MigrationMessage(res))
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the remote collections into a local cache and report row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, shouldStop, cancel := interruptible(cmd.Context())
		defer cancel()
		container, err := current.services(ctx, false)
		if err != nil {
			return err
		}
		defer container.Repos.Close()

		report, err := container.Jobs.RunSync(ctx, printProgress(cmd.OutOrStdout()), shouldStop)
		if err != nil {
			return err
		}
		if len(report.Rows) == 0 && len(report.Failed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Local backend active, nothing to sync")
			return nil
		}
		for _, name := range sortedKeys(report.Rows) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d rows\n", name, report.Rows[name])
		}
		for _, name := range sortedKeys(report.Failed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%-16s failed: %s\n", name, report.Failed[name])
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d collections failed to sync", len(report.Failed))
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup [folder]",
	Short: "Copy the active backend into a timestamped SQLite file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := ""
		if len(args) == 1 {
			folder = args[0]
		}
		ctx, shouldStop, cancel := interruptible(cmd.Context())
		defer cancel()
		container, err := current.services(ctx, false)
		if err != nil {
			return err
		}
		defer container.Repos.Close()

		res, err := container.Jobs.RunBackup(ctx, folder, printProgress(cmd.OutOrStdout()), shouldStop)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the selected backend answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := current.services(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer container.Repos.Close()

		repo := container.Repos.Current()
		healthy := repo.VerifyConnection(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "backend=%s healthy=%t\n", repo.Backend(), healthy)
		if !healthy {
			return fmt.Errorf("%w: %s backend did not answer", apperrors.ErrConnection, repo.Backend())
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default project, accounts and categories on an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := current.services(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer container.Repos.Close()

		repo := container.Repos.Current()
		if err := repo.Seed(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s backend\n", repo.Backend())
		return nil
	},
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "Run the whole migration without writing to the remote")
	migrateCmd.Flags().StringSlice("tables", nil, "Only migrate these tables (comma separated)")
	migrateCmd.Flags().Bool("upload-attachments", false, "Upload rental attachments to object storage")
}
