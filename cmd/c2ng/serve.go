// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/flyvercity/iot-ngin-c2ng/api"
	"github.com/flyvercity/iot-ngin-c2ng/auth"
	"github.com/flyvercity/iot-ngin-c2ng/config"
	"github.com/flyvercity/iot-ngin-c2ng/creds"
	"github.com/flyvercity/iot-ngin-c2ng/did"
	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/internal/metrics"
	"github.com/flyvercity/iot-ngin-c2ng/notify"
	"github.com/flyvercity/iot-ngin-c2ng/pkg/health"
	"github.com/flyvercity/iot-ngin-c2ng/pkg/version"
	"github.com/flyvercity/iot-ngin-c2ng/sessman"
	"github.com/flyvercity/iot-ngin-c2ng/slice"
	"github.com/flyvercity/iot-ngin-c2ng/stats"
	"github.com/flyvercity/iot-ngin-c2ng/store"
	"github.com/flyvercity/iot-ngin-c2ng/telemetry"
	"github.com/flyvercity/iot-ngin-c2ng/uss"
)

const defaultConfigFile = "/app/config/c2ng/config.yaml"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connectivity service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	configFile := os.Getenv(config.EnvConfigFile)
	if configFile == "" {
		configFile = defaultConfigFile
	}

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}

	if cfg.Logging.Verbose {
		logger.GetDefaultLogger().SetLevel(logger.DebugLevel)
	}

	logger.Info("---------- Starting up ----------",
		logger.String("version", version.String()))

	ctx := context.Background()

	logger.Debug("Executing pre-start tasks")

	verifier, err := auth.FetchKeys(ctx, cfg.OAuth.Keycloak)
	if err != nil {
		return fmt.Errorf("fetch IdP keys: %w", err)
	}

	logger.Debug("Creating backend objects")

	sessions, err := store.NewMongoStore(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close(ctx) }()

	ussSecret, err := config.RequireEnv(config.EnvUssClientSecret)
	if err != nil {
		return err
	}

	ussClient := uss.NewClient(cfg.USS, ussSecret)

	provider, err := slice.New(cfg.SliceMan)
	if err != nil {
		return err
	}

	uasSecret, err := config.RequireEnv(config.EnvUasClientSecret)
	if err != nil {
		return err
	}

	issuer, err := creds.NewIssuer(
		cfg.Security.Certificate,
		cfg.Security.Private,
		cfg.Security.DefaultTTL,
		uasSecret,
	)
	if err != nil {
		return err
	}

	signal := telemetry.NewInfluxStore(cfg.Influx, os.Getenv(config.EnvInfluxToken))
	defer signal.Close()

	wsSecret, err := config.RequireEnv(config.EnvWsAuthSecret)
	if err != nil {
		return err
	}

	tickets, err := notify.NewTicketManager(wsSecret)
	if err != nil {
		return err
	}

	manager := sessman.NewManager(sessions, ussClient, provider, issuer, sessman.NewRegistry())
	statsman := stats.NewManager(sessions, signal)

	checker := health.NewChecker()
	checker.Register("mongo", sessions.Ping)
	checker.Register("influx", signal.Ping)

	frontend := api.NewServer(api.Deps{
		Verifier: verifier,
		Sessions: sessions,
		Signal:   signal,
		SessMan:  manager,
		StatsMan: statsman,
		Tickets:  tickets,
		DID:      did.NewProvider(cfg.DID),
		Checker:  checker,
	})

	logger.Debug("Perform pre-start activities")

	if err := provider.Establish(ctx); err != nil {
		return fmt.Errorf("establish slice provider: %w", err)
	}

	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Service.Port),
		Handler: frontend.Router(),
	}

	var group run.Group

	group.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	group.Add(func() error {
		logger.Info("Listening for requests", logger.Int("port", cfg.Service.Port))
		return apiServer.ListenAndServe()
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = apiServer.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port))

		group.Add(func() error {
			logger.Info("Serving metrics", logger.Int("port", cfg.Metrics.Port))
			return metricsServer.ListenAndServe()
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		})
	}

	err = group.Run()

	if _, ok := err.(run.SignalError); ok {
		logger.Info("---------- Shutting down ----------")
		return nil
	}

	return err
}
