package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or change the settings document",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting, e.g. data_source or remote.project_id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := current.settings.Get(key, nil)
		if value == nil {
			return apperrors.NewNotFoundError("setting " + key + " is not set")
		}
		if key == settings.KeyRemotePassword {
			value = "********"
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting and save the document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		if key == settings.KeyDataSource {
			b := settings.Backend(strings.ToLower(raw))
			if b != settings.BackendLocal && b != settings.BackendRemote {
				return apperrors.NewValidationError("data_source must be local or remote, got %q", raw)
			}
			current.settings.SetDataSource(b)
		} else {
			current.settings.Set(key, parseValue(raw))
		}
		if err := current.settings.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", key, current.settings.Path())
		return nil
	},
}

var settingsRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Store the four remote credentials at once",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := current.settings.RemoteCredentials()
		flags := cmd.Flags()
		if flags.Changed("project-id") {
			creds.ProjectID, _ = flags.GetString("project-id")
		}
		if flags.Changed("email") {
			creds.Email, _ = flags.GetString("email")
		}
		if flags.Changed("password") {
			creds.Password, _ = flags.GetString("password")
		}
		if flags.Changed("api-key") {
			creds.APIKey, _ = flags.GetString("api-key")
		}
		current.settings.SetRemoteCredentials(creds)
		if err := current.settings.Save(); err != nil {
			return err
		}
		if missing := creds.Missing(); len(missing) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Remote credentials saved, still missing: %s\n", strings.Join(missing, ", "))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Remote credentials saved")
		return nil
	},
}

// parseValue keeps booleans typed in the JSON document; everything else is a string.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	return raw
}

func init() {
	settingsRemoteCmd.Flags().String("project-id", "", "Remote project id")
	settingsRemoteCmd.Flags().String("email", "", "Account email")
	settingsRemoteCmd.Flags().String("password", "", "Account password")
	settingsRemoteCmd.Flags().String("api-key", "", "Web API key")
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsRemoteCmd)
}
