package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"

	"github.com/veilchat/sentinel/analyzer"
	"github.com/veilchat/sentinel/cachestore"
	"github.com/veilchat/sentinel/counterstore"
	"github.com/veilchat/sentinel/engine"
	"github.com/veilchat/sentinel/lexicon"
	"github.com/veilchat/sentinel/sweeper"
	"github.com/veilchat/sentinel/visual"
)

type Server struct {
	logger  *slog.Logger
	engine  *engine.Engine
	sweeper *sweeper.Sweeper
	store   counterstore.Store
	// cache backs the engine's escalation dedupe markers and, with a short
	// per-entry TTL, the counters endpoint's read-through document cache.
	cache cachestore.CacheStore
	echo  *echo.Echo
	httpd *http.Server
}

type Config struct {
	Logger              *slog.Logger
	Bind                string
	RedisURL            string
	LexiconFileJSON     string
	Strictness          string
	ClassifierHost      string
	ClassifierToken     string
	ClassifierRateLimit int
	Workers             int
	SweepInterval       time.Duration
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	strictness, err := parseStrictness(config.Strictness)
	if err != nil {
		return nil, err
	}

	lex := lexicon.Default()
	if config.LexiconFileJSON != "" {
		lex, err = lexicon.LoadFromFileJSON(config.LexiconFileJSON)
		if err != nil {
			return nil, fmt.Errorf("initializing lexicon: %v", err)
		}
		logger.Info("loaded lexicon from JSON", "path", config.LexiconFileJSON)
	}

	var store counterstore.Store
	var cache cachestore.CacheStore
	if config.RedisURL != "" {
		st, err := counterstore.NewRedisStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis counterstore: %v", err)
		}
		store = st

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh
	} else {
		store = counterstore.NewMemStore()
		cache = cachestore.NewMemCacheStore(5_000, 24*time.Hour)
	}

	engCfg := engine.DefaultConfig()
	engCfg.Filter.Strictness = strictness
	engCfg.Workers = config.Workers
	eng := engine.NewEngine(logger, lex, store, cache, engCfg)

	if config.ClassifierHost != "" {
		logger.Info("configuring image classifier", "host", config.ClassifierHost)
		eng.Classifier = visual.NewHTTPClassifier(config.ClassifierHost, config.ClassifierToken, config.ClassifierRateLimit)
	}

	swp := sweeper.New(logger, store)
	if config.SweepInterval > 0 {
		swp.Interval = config.SweepInterval
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4M"))

	srv := &Server{
		logger:  logger,
		engine:  eng,
		sweeper: swp,
		store:   store,
		cache:   cache,
		echo:    e,
	}
	e.HTTPErrorHandler = srv.errorHandler

	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           config.Bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.GET("/_health", srv.HandleHealthCheck)
	e.POST("/evaluate", srv.HandleEvaluate)
	e.POST("/evaluate/image", srv.HandleEvaluateImage)
	e.GET("/users/:id/counters", srv.HandleGetCounters)

	return srv, nil
}

func parseStrictness(s string) (analyzer.Strictness, error) {
	switch s {
	case "", "moderate":
		return analyzer.Moderate, nil
	case "permissive":
		return analyzer.Permissive, nil
	case "strict":
		return analyzer.Strict, nil
	default:
		return 0, fmt.Errorf("unknown strictness: %q", s)
	}
}

func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

// Run starts the evaluation workers, the periodic sweeper, and the HTTP API,
// and blocks until an OS exit signal or a fatal error.
func (srv *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := srv.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			srv.logger.Error("evaluation workers shutting down unexpectedly", "err", err)
		}
	}()
	go func() {
		if err := srv.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			srv.logger.Error("sweeper shutting down unexpectedly", "err", err)
		}
	}()

	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	quit := make(chan struct{})
	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSignals
		srv.logger.Info("received OS exit signal", "signal", sig)

		if err := srv.Shutdown(); err != nil {
			srv.logger.Error("HTTP server shutdown error", "err", err)
		}
		cancel()
		close(quit)
	}()
	<-quit
	srv.logger.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (srv *Server) Shutdown() error {
	srv.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.httpd.Shutdown(ctx)
}
