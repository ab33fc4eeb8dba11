package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"docwatch/internal/auth"
	"docwatch/internal/config"
	"docwatch/internal/email/noop"
	"docwatch/internal/email/ses"
	"docwatch/internal/handler"
	"docwatch/internal/metrics"
	"docwatch/internal/port"
	"docwatch/internal/repository/postgres"
	"docwatch/internal/router"
	"docwatch/internal/service"
	"docwatch/internal/statusapi"
	s3storage "docwatch/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var (
		db        *sqlx.DB
		snapshots port.SnapshotRepository
	)
	if cfg.DB.Enabled() {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		snapshots = postgres.NewSnapshotRepo(db)
	} else {
		log.Println("snapshot persistence disabled: DOCWATCH_DB_HOST is not set")
	}

	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.Println("artifact publishing disabled: DOCWATCH_S3_BUCKET is not set")
	}

	var notifier port.Notifier
	switch cfg.Email.Provider {
	case "ses":
		notifier, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		notifier = noop.NewNoopSender(cfg.Email.FrontendURL)
	}

	m := metrics.New()
	client := statusapi.NewClient(&cfg.Poller)

	runSvc := service.NewRunService(client, snapshots, storage, notifier, m, service.RunServiceConfigFrom(cfg))
	sourceSvc := service.NewSourceService(storage, &cfg.S3)

	opts := router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        m.Handler(),
		Observer:       m,
	}
	if cfg.Auth.Secret != "" {
		opts.Validator = auth.NewTokens(cfg.Auth)
	} else {
		log.Println("bearer authentication disabled: DOCWATCH_AUTH_SECRET is not set")
	}

	r := router.Setup(handler.NewRunHandler(runSvc, sourceSvc), handler.NewHealthHandler(db), opts)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (results service %s)", cfg.Server.Port, cfg.Poller.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := runSvc.Shutdown(ctx); err != nil {
		log.Printf("run service shutdown: %v", err)
	}
	return nil
}
