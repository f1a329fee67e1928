// Package engine orchestrates safety evaluation: it runs the content analyzer
// and phrase detectors over inbound messages, merges detections into the
// canonical taxonomy, and drives counter updates and escalation. Evaluation is
// fire-and-forget and best-effort: it runs off the caller's path, recovers
// panics, and logs failures instead of surfacing them. Sending a message is
// never blocked or altered by this component.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veilchat/sentinel/analyzer"
	"github.com/veilchat/sentinel/cachestore"
	"github.com/veilchat/sentinel/category"
	"github.com/veilchat/sentinel/counterstore"
	"github.com/veilchat/sentinel/detector"
	"github.com/veilchat/sentinel/lexicon"
	"github.com/veilchat/sentinel/visual"
)

type Config struct {
	// Filter is the analyzer configuration applied to every message.
	Filter analyzer.Config
	// EscalationDedupePeriod suppresses repeat escalations for the same
	// user+category; applied as the TTL on dedupe markers.
	EscalationDedupePeriod time.Duration
	Workers                int
	QueueSize              int
}

func DefaultConfig() Config {
	return Config{
		Filter:                 analyzer.DefaultConfig(),
		EscalationDedupePeriod: 24 * time.Hour,
		Workers:                4,
		QueueSize:              1024,
	}
}

type Engine struct {
	Logger    *slog.Logger
	Analyzer  *analyzer.Analyzer
	Detectors *detector.Detector
	Store     counterstore.Store
	// Cache holds escalation dedupe markers. Optional; without it every
	// high-severity detection escalates.
	Cache cachestore.CacheStore
	// Classifier is the external image moderation model. Optional; without it
	// EvaluateImage is a no-op.
	Classifier visual.Classifier

	cfg     Config
	tasks   chan task
	running atomic.Bool
}

func NewEngine(logger *slog.Logger, lex *lexicon.Lexicon, store counterstore.Store, cache cachestore.CacheStore, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.EscalationDedupePeriod <= 0 {
		cfg.EscalationDedupePeriod = 24 * time.Hour
	}
	return &Engine{
		Logger:    logger,
		Analyzer:  analyzer.New(lex),
		Detectors: detector.New(lex),
		Store:     store,
		Cache:     cache,
		cfg:       cfg,
		tasks:     make(chan task, cfg.QueueSize),
	}
}

type taskKind int

const (
	taskText taskKind = iota
	taskImage
)

type task struct {
	kind   taskKind
	text   string
	image  []byte
	userID string
}

// Evaluate submits message text for background analysis. Never blocks; the
// caller gets no result and no error, by contract.
func (eng *Engine) Evaluate(text, userID string) {
	eng.dispatch(task{kind: taskText, text: text, userID: userID})
}

// EvaluateImage submits image bytes for background classification.
func (eng *Engine) EvaluateImage(data []byte, userID string) {
	eng.dispatch(task{kind: taskImage, image: data, userID: userID})
}

func (eng *Engine) dispatch(t task) {
	if eng.running.Load() {
		select {
		case eng.tasks <- t:
			return
		default:
			queueOverflowCount.Inc()
		}
	}
	// no worker pool, or queue full: still must not block the send path
	go eng.runTask(context.Background(), t)
}

// Run consumes the evaluation queue with a pool of background workers until
// ctx is cancelled. In-flight evaluations run to completion.
func (eng *Engine) Run(ctx context.Context) error {
	eng.running.Store(true)
	defer eng.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < eng.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case t := <-eng.tasks:
					eng.runTask(context.Background(), t)
				}
			}
		})
	}
	return g.Wait()
}

func (eng *Engine) runTask(ctx context.Context, t task) {
	switch t.kind {
	case taskText:
		eng.ProcessText(ctx, t.text, t.userID)
	case taskImage:
		eng.ProcessImage(ctx, t.image, t.userID)
	}
}

// ProcessText is the synchronous evaluation path, for callers that embed the
// engine directly. There is no error return: failures are logged and
// swallowed, and malformed or empty input degrades to an empty result.
func (eng *Engine) ProcessText(ctx context.Context, text, userID string) *DetectionResult {
	// recover panics from rule execution, as an HTTP server would
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("evaluation panic", "err", r, "user", userID)
			evalErrorCount.WithLabelValues("text").Inc()
		}
	}()
	start := time.Now()
	defer func() {
		evalDuration.WithLabelValues("text").Observe(time.Since(start).Seconds())
	}()
	evalCount.WithLabelValues("text").Inc()

	res := eng.detectText(text)
	if len(res.Categories) == 0 {
		eng.Logger.Debug("evaluation clean", "user", userID)
		return res
	}
	eng.persistDetection(ctx, userID, res, len([]rune(text)))
	return res
}

// ProcessImage classifies image bytes via the external model and persists any
// mapped categories. Classifier failure means no categories detected.
func (eng *Engine) ProcessImage(ctx context.Context, data []byte, userID string) *DetectionResult {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("evaluation panic", "err", r, "user", userID)
			evalErrorCount.WithLabelValues("image").Inc()
		}
	}()
	start := time.Now()
	defer func() {
		evalDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	}()
	evalCount.WithLabelValues("image").Inc()

	res := &DetectionResult{}
	if eng.Classifier == nil || len(data) == 0 {
		return res
	}
	labels, err := eng.Classifier.Classify(ctx, data)
	if err != nil {
		eng.Logger.Warn("image classification failed, treating as clean", "err", err, "user", userID)
		classifierErrorCount.Inc()
		return res
	}
	res.Categories = visual.MapLabels(labels)
	if len(res.Categories) == 0 {
		return res
	}
	for _, l := range labels {
		if l.Score > res.Confidence {
			res.Confidence = l.Score
		}
		res.Reasons = append(res.Reasons, "image label: "+l.Class)
	}
	eng.persistDetection(ctx, userID, res, len(data))
	return res
}

func (eng *Engine) detectText(text string) *DetectionResult {
	res := &DetectionResult{}

	verdict := eng.Analyzer.Analyze(text, eng.cfg.Filter)
	if verdict.Verdict != analyzer.VerdictSafe {
		res.Categories = append(res.Categories, category.MapReasons(verdict.Reasons)...)
		res.Reasons = append(res.Reasons, verdict.Reasons...)
		if verdict.Verdict == analyzer.VerdictUnsafe {
			res.Confidence = 0.9
		} else {
			res.Confidence = 0.6
		}
	}

	// phrase detectors run unconditionally, at full sensitivity
	det := eng.Detectors.DetectAll(text)
	if len(det.Categories) > 0 {
		res.Categories = append(res.Categories, det.Categories...)
		res.Reasons = append(res.Reasons, det.Reasons...)
		if res.Confidence < 0.95 {
			res.Confidence = 0.95
		}
	}

	res.Categories = category.Dedupe(res.Categories)
	return res
}
