package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/coordinator/provider"
	"github.com/egorairo/ShelfSense/qloo"
	"github.com/egorairo/ShelfSense/server"
	"github.com/egorairo/ShelfSense/tools"
	"github.com/egorairo/ShelfSense/tools/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shelfsense.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := shelfsense.InitOtel(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	httpClient := &http.Client{Timeout: 60 * time.Second}

	qc := qloo.NewClient(qloo.ClientOpts{
		BaseURL:       cfg.Qloo.BaseURL,
		APIKey:        cfg.Qloo.APIKey,
		RatePerSecond: cfg.Qloo.RatePerSecond,
		Burst:         cfg.Qloo.Burst,
		CacheTTL:      cfg.Qloo.CacheTTL,
	})

	fallback, err := fallbackSalesState(ctx, cfg.Sales)
	if err != nil {
		log.Fatalf("Failed to set up sales state: %s", err)
	}

	registry, err := tools.NewRegistry(qc, storage.NewRequestSalesState(fallback))
	if err != nil {
		log.Fatalf("Failed to create tool registry: %s", err)
	}

	llm, model, err := provider.NewLLMClient(ctx, cfg, httpClient)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %s", err)
	}

	coordinationLogger, closeLog, err := shelfsense.NewCoordinationLogger(cfg.Agent, "server", model)
	if err != nil {
		log.Fatalf("Failed to create coordination logger: %s", err)
	}
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("SETUP: Failed to close coordination log", "error", err)
		}
	}()

	coord, err := coordinator.NewCoordinator(
		llm,
		registry,
		cfg.Agent.MaxIterations,
		coordinationLogger,
		coordinator.WithTracer(tracerProvider.Tracer(shelfsense.TracerNameCoordinator)),
		coordinator.WithMeter(meterProvider.Meter(shelfsense.TracerNameCoordinator)),
	)
	if err != nil {
		log.Fatalf("Failed to create coordinator: %s", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(coord, cfg.Server).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
	}

	go func() {
		slog.Info("SETUP: ShelfSense listening", "addr", srv.Addr, "provider", cfg.Agent.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("SERVER: Listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("SERVER: Shutdown failed", "error", err)
	}
	slog.Info("SERVER: Stopped")
}

// fallbackSalesState returns the sales source used when a request carries no
// sales of its own, or nil when none is configured.
func fallbackSalesState(ctx context.Context, cfg shelfsense.SalesConfig) (storage.SalesState, error) {
	switch {
	case cfg.CSVPath != "":
		slog.Info("SETUP: Using sales CSV", "path", cfg.CSVPath)
		return storage.NewFileSalesState(cfg.CSVPath), nil
	case cfg.S3Bucket != "":
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		slog.Info("SETUP: Using sales CSV from S3", "bucket", cfg.S3Bucket, "key", cfg.S3Key)
		return storage.NewS3SalesState(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key), nil
	}
	return nil, nil
}
