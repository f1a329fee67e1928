package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "sentineld",
		Usage:   "safety signal detection daemon",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3310",
			EnvVars: []string{"SENTINEL_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3311",
			EnvVars: []string{"SENTINEL_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters and caches; empty means in-process stores",
			EnvVars: []string{"SENTINEL_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "lexicon-file",
			Usage:   "path to JSON lexicon overriding the embedded default",
			EnvVars: []string{"SENTINEL_LEXICON_FILE"},
		},
		&cli.StringFlag{
			Name:    "strictness",
			Usage:   "filter strictness: permissive, moderate, or strict",
			Value:   "moderate",
			EnvVars: []string{"SENTINEL_STRICTNESS"},
		},
		&cli.StringFlag{
			Name:    "classifier-host",
			Usage:   "base URL of the image classification service",
			EnvVars: []string{"SENTINEL_CLASSIFIER_HOST"},
		},
		&cli.StringFlag{
			Name:    "classifier-token",
			Usage:   "bearer token for the image classification service",
			EnvVars: []string{"SENTINEL_CLASSIFIER_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "classifier-rate-limit",
			Usage:   "max requests per second to the image classification service",
			Value:   5,
			EnvVars: []string{"SENTINEL_CLASSIFIER_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "number of background evaluation workers",
			Value:   4,
			EnvVars: []string{"SENTINEL_WORKERS"},
		},
		&cli.DurationFlag{
			Name:    "sweep-interval",
			Usage:   "how often to trim expired counter entries",
			Value:   time.Hour,
			EnvVars: []string{"SENTINEL_SWEEP_INTERVAL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("sentineld"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		srv, err := NewServer(Config{
			Logger:              logger,
			Bind:                cctx.String("bind"),
			RedisURL:            cctx.String("redis-url"),
			LexiconFileJSON:     cctx.String("lexicon-file"),
			Strictness:          cctx.String("strictness"),
			ClassifierHost:      cctx.String("classifier-host"),
			ClassifierToken:     cctx.String("classifier-token"),
			ClassifierRateLimit: cctx.Int("classifier-rate-limit"),
			Workers:             cctx.Int("workers"),
			SweepInterval:       cctx.Duration("sweep-interval"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run safety service: %w", err)
		}
		return nil
	},
}
