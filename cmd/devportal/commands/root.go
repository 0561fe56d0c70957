package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand creates the devportal command with its global flags bound to viper.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devportal",
		Short: "Keboola developer portal CLI",
		Long: `A command-line interface for the Keboola developer portal API.

Manage the apps of your vendor, browse the public catalog and, as an
administrator, inspect every registered app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.devportal/config.yml)")
	flags.String(keyURL, "", "API endpoint URL (default https://apps-api.keboola.com/)")
	flags.StringP(keyToken, "t", "", "bearer token")
	flags.StringP(keyOutput, "o", "table", "output format (table, json, yaml)")
	flags.BoolP(keyVerbose, "v", false, "verbose output")

	// Bind flags to viper
	for _, name := range []string{"config", keyURL, keyToken, keyOutput, keyVerbose} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewAdminCommand())
	rootCmd.AddCommand(NewVendorsCommand())
	rootCmd.AddCommand(NewAppsCommand())

	return rootCmd
}
