package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/core"
	"github.com/appforge-dev/appforge/httpapi"
	"github.com/appforge-dev/appforge/internal/appconfig"
	"github.com/appforge-dev/appforge/internal/backend"
	"github.com/appforge-dev/appforge/schema"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var backendURL string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the appforge session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if backendURL != "" {
				cfg.Backend.BaseURL = backendURL
			}

			generator := backend.New(backend.Config{
				BaseURL: cfg.Backend.BaseURL,
				APIKey:  cfg.Backend.APIKey,
			}, logger)
			synthesizer := core.NewSynthesizer(core.PreviewConfig{
				ReactURL:    cfg.Preview.ReactURL,
				ReactDOMURL: cfg.Preview.ReactDOMURL,
				BabelURL:    cfg.Preview.BabelURL,
			})
			hub := httpapi.NewHub(1000)
			service := core.New(core.ServiceDeps{
				Generator:   generator,
				Synthesizer: synthesizer,
				EventSink:   hub,
				Logger:      logger,
			}, schema.ServiceConfig{
				DefaultModel:   schema.ModelID(cfg.Models.Default),
				HistoryLimit:   cfg.Service.HistoryLimit,
				CreditsPerTurn: cfg.Service.CreditsPerTurn,
			})
			server := httpapi.NewServer(httpapi.Config{
				Addr:     cfg.HTTP.Addr,
				BaseURL:  cfg.HTTP.BaseURL,
				BasePath: cfg.HTTP.BasePath,
			}, service, hub)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("http server listening", "addr", cfg.HTTP.Addr, "backend", cfg.Backend.BaseURL)
			return httpapi.ListenAndServe(ctx, cfg.HTTP.Addr, server.Handler())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	cmd.Flags().StringVar(&backendURL, "backend", "", "backend base URL override")
	return cmd
}
