package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChenxingM/RenderQ/pkg/api"
	"github.com/ChenxingM/RenderQ/pkg/config"
	"github.com/ChenxingM/RenderQ/pkg/coordinator"
	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/log"
	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/plugins/aftereffects"
	"github.com/ChenxingM/RenderQ/pkg/plugins/ffmpeg"
	"github.com/ChenxingM/RenderQ/pkg/scheduler"
	"github.com/ChenxingM/RenderQ/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the RenderQ coordinator daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if v, _ := cmd.Flags().GetString("listen-addr"); v != "" {
			cfg.ListenAddr = v
		}
		if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
			cfg.DataDir = v
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}

		bus := events.NewBus()
		bus.Start()

		registry := plugins.NewRegistry()
		registry.Register(ffmpeg.New())
		registry.Register(aftereffects.New())

		schedCfg := scheduler.DefaultConfig()
		schedCfg.WorkerTimeout = cfg.WorkerTimeout
		schedCfg.Interval = cfg.SchedulerInterval
		sched := scheduler.New(store, bus, registry, schedCfg)

		logDir := cfg.DataDir + "/logs"
		coord := coordinator.New(store, bus, registry, sched, logDir)
		coord.Start()

		server := api.NewServer(coord, cfg.ListenAddr)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil {
				errCh <- fmt.Errorf("api server: %w", err)
			}
		}()

		log.WithComponent("serve").Info().Str("addr", cfg.ListenAddr).Str("data_dir", cfg.DataDir).Msg("renderq coordinator started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.WithComponent("serve").Info().Msg("shutting down")
		case err := <-errCh:
			log.WithComponent("serve").Error().Err(err).Msg("api server failed")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			log.WithComponent("serve").Error().Err(err).Msg("api server shutdown error")
		}
		if err := coord.Stop(); err != nil {
			log.WithComponent("serve").Error().Err(err).Msg("coordinator shutdown error")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to renderq.yaml")
	serveCmd.Flags().String("listen-addr", "", "Override the configured listen address")
	serveCmd.Flags().String("data-dir", "", "Override the configured data directory")
}
