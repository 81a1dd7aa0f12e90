package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/internal/appconfig"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage appforge configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			written, err := appconfig.WriteDefault(path, overwrite)
			if err != nil {
				return err
			}
			logger.Info("config written", "path", written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "config path (defaults to ~/.appforge/config.yaml)")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing config")
	return cmd
}
