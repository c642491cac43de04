package app

import (
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/daemon"
)

func init() { //nolint:gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")
	startCmd.Flags().IntVar(&port, "port", 0, "listening port (overrides webserver.port)")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool
	port    int

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the demo entity backend",
		PreRun: func(_ *cobra.Command, _ []string) {
			if devMode {
				cfg.DevMode = true
			}

			if port > 0 {
				cfg.Webserver.Port = port
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
