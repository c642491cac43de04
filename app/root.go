// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config
	v          = config.NewViper()

	rootCmd = &cobra.Command{
		Use:   "go-entity-admin",
		Short: "GoEntity-Admin manages entity collections of a REST backend",
		Long: `GoEntity-Admin lists, searches, creates, updates, deletes and exports the records of any entity
served by a REST backend, driven by per-entity options documents. It also runs a demo backend.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}
)

func init() { //nolint:gochecknoinits
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "./etc/", "directory of main.toml")
	flags.String("base-url", "", "API base url (overrides api.baseURL)")
	flags.String("client", "", "client whose options documents are used (overrides client.name)")
	flags.String("mode", "", "controller mode: local or remote (overrides controller.mode)")
	flags.String("session", "", "session file (overrides auth.sessionFile)")

	_ = v.BindPFlag("api.baseurl", flags.Lookup("base-url"))
	_ = v.BindPFlag("client.name", flags.Lookup("client"))
	_ = v.BindPFlag("controller.mode", flags.Lookup("mode"))
	_ = v.BindPFlag("auth.sessionfile", flags.Lookup("session"))
}

// loadConfig reads the TOML config, applies environment and flag overrides and initializes the logger.
func loadConfig() error {
	c, err := config.ReadConfig(configPath)
	if err != nil {
		return err
	}

	if err := config.ApplyOverrides(v, &c); err != nil {
		return err
	}

	cfg = c

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Viper returns the viper instance holding the flag and environment bindings.
func Viper() *viper.Viper {
	return v
}
