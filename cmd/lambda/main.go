package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/coordinator/provider"
	"github.com/egorairo/ShelfSense/qloo"
	"github.com/egorairo/ShelfSense/slack"
	"github.com/egorairo/ShelfSense/tools"
	"github.com/egorairo/ShelfSense/tools/storage"
)

const defaultTask = "Which products should I add to my shelves next?"

type Params struct {
	StoreType string `json:"store_type"`
	Location  string `json:"location"`
	Task      string `json:"task"`
	Channel   string `json:"channel"`
}

type Results struct {
	Output shelfsense.Outcome `json:"output"`
	Posted bool               `json:"posted"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		cfg, err := shelfsense.LoadConfig()
		if err != nil {
			return Results{}, err
		}
		if params.Location == "" {
			return Results{}, errors.New("location is required")
		}
		if params.Task == "" {
			params.Task = defaultTask
		}
		if params.Channel == "" {
			params.Channel = cfg.Slack.Channel
		}

		tracerProvider, meterProvider, otelShutdown, err := shelfsense.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		ctx, span := tracerProvider.Tracer(shelfsense.TracerNameLambda).Start(ctx, "lambda.report", trace.WithAttributes(
			attribute.String("shop.location", params.Location),
			attribute.String("shop.store_type", params.StoreType),
		))
		defer span.End()

		if cfg.Sales.S3Bucket == "" {
			return Results{}, fmt.Errorf("missing S3 config: SALES_S3_BUCKET and SALES_S3_KEY must be set")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		sales := storage.NewS3SalesState(s3.NewFromConfig(awsCfg), cfg.Sales.S3Bucket, cfg.Sales.S3Key)

		records, err := sales.Load(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to load sales data from S3", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Sales data loaded from S3", "products", len(records))

		httpClient := &http.Client{Timeout: 60 * time.Second}

		registry, err := tools.NewRegistry(qloo.NewClient(qloo.ClientOpts{
			BaseURL:       cfg.Qloo.BaseURL,
			APIKey:        cfg.Qloo.APIKey,
			HTTPClient:    httpClient,
			RatePerSecond: cfg.Qloo.RatePerSecond,
			Burst:         cfg.Qloo.Burst,
			CacheTTL:      cfg.Qloo.CacheTTL,
		}), storage.NewMemorySalesState(records))
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}

		llm, _, err := provider.NewLLMClient(ctx, cfg, httpClient)
		if err != nil {
			return Results{}, err
		}

		coord, err := coordinator.NewCoordinator(
			llm,
			registry,
			cfg.Agent.MaxIterations,
			shelfsense.NewStdoutCoordinationLogger(),
			coordinator.WithTracer(tracerProvider.Tracer(shelfsense.TracerNameCoordinator)),
			coordinator.WithMeter(meterProvider.Meter(shelfsense.TracerNameCoordinator)),
		)
		if err != nil {
			return Results{}, err
		}

		profile := shelfsense.ShopProfile{StoreType: params.StoreType, Location: params.Location, Products: len(records)}
		outcome, err := coord.Run(ctx, shelfsense.Session{
			ID:       uuid.NewString(),
			Mode:     shelfsense.ModeRetail,
			Messages: []shelfsense.ChatMessage{{Role: "user", Content: params.Task}},
			Context:  profile.Context(),
		}, shelfsense.DiscardSink)
		if err != nil {
			slog.Error("RESULT: Error handling task", "error", err)
			return Results{}, err
		}

		report := slack.Report{
			StoreType:  params.StoreType,
			Location:   params.Location,
			Summary:    outcome.Text,
			Iterations: outcome.Iterations,
			ToolCalls:  outcome.ToolCalls,
		}
		var notifier shelfsense.SlackClient = slack.NewClient(cfg.Slack.WebhookURL, httpClient)
		err = notifier.PostReport(ctx, params.Channel, report)
		switch {
		case errors.Is(err, slack.ErrNoWebhook):
			slog.Info("RESULT: Slack webhook not configured, skipping report")
			return Results{Output: outcome}, nil
		case err != nil:
			slog.Error("RESULT: Failed to post report to Slack", "error", err)
			return Results{Output: outcome}, err
		}

		slog.Info("RESULT: Report posted", "channel", params.Channel, "iterations", outcome.Iterations)
		return Results{Output: outcome, Posted: true}, nil
	}

	lambda.Start(fn)
}
