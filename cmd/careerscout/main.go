package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Career-Scout/careerscout/internal/analysis"
	"github.com/Career-Scout/careerscout/internal/config"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/internal/server"
	"github.com/Career-Scout/careerscout/internal/session"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "careerscout",
		Short: "Multi-stage resume analysis and job recommendation service",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the careerscout API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(server.Version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		store, err := session.NewSQLiteStore(cfg.Storage.SQLitePath, cfg.Storage.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Logger.Warn().Err(err).Msg("failed to close session store")
			}
		}, nil
	default:
		return session.NewMemoryStore(cfg.Storage.SessionTTL), func() {}, nil
	}
}

func modelMatrix(cfg *config.Config) analysis.ModelMatrix {
	matrix := make(analysis.ModelMatrix, len(cfg.Pipeline.Models))
	for mode, tiers := range cfg.Pipeline.Models {
		set := make(map[pipeline.Tier]string, len(tiers))
		for tier, model := range tiers {
			set[pipeline.Tier(tier)] = model
		}
		matrix[pipeline.Mode(mode)] = set
	}
	return matrix
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := analysis.NewService(analysis.Config{
		Store:    store,
		Executor: pipeline.NewHTTPExecutor(cfg.Runtime.URL, cfg.Runtime.Timeout),
		Models:   modelMatrix(cfg),
		Stagger:  cfg.Pipeline.StaggerDelay,
	})

	srv := server.New(cfg, svc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
