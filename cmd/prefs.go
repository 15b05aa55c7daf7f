package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/service"
	"github.com/shaharia-lab/courier/internal/storage"
)

// NewPrefsCmd returns the "prefs" command group for seeding and inspecting
// notification preferences.
func NewPrefsCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Import and inspect notification preferences",
	}
	cmd.AddCommand(newPrefsImportCmd(cfg), newPrefsShowCmd(cfg))
	return cmd
}

func newPrefsImportCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or update users and their preferences from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := storage.LoadSeedFile(args[0])
			if err != nil {
				return err
			}

			db, _, err := storage.NewSQLiteDB(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			n, err := storage.ApplySeed(cmd.Context(), db, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d users\n", n)
			return nil
		},
	}
}

func newPrefsShowCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show the effective channel routing for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			db, _, err := storage.NewSQLiteDB(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			svc := service.NewNotificationService(service.NotificationServiceConfig{
				Preferences: storage.NewSQLitePreferenceStore(db),
			})
			sum, err := svc.GetPreferenceSummary(cmd.Context(), userID)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(sum); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
