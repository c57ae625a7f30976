package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobfill/config"
	"jobfill/handlers"
	"jobfill/middleware"
	"jobfill/services"
	"jobfill/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the field classifier HTTP API",
	RunE:  runServe,
}

var servePort string

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.GetAppConfig()
	if servePort != "" {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Environment)
	defer logger.Sync()
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles, closeStore, err := newProfileStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	classifier, err := newFieldClassifier(ctx, cfg, newResumeFetcher(cfg, logger), logger)
	if err != nil {
		return err
	}

	limiter := middleware.ClassifyRateLimiter()
	go limiter.Cleanup(ctx, time.Minute)

	router := handlers.NewRouter(handlers.RouterDeps{
		Classifier:  classifier,
		Profiles:    profiles,
		JWT:         services.NewJWTService(cfg.JWTSecret),
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("classifier API listening", zap.String("port", cfg.Port), zap.String("provider", cfg.LLM.Provider))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
