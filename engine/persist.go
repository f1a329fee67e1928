package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/veilchat/sentinel/category"
	"github.com/veilchat/sentinel/counterstore"
)

const escalationCacheName = "escalated"

// persistDetection writes one detection to the store: a single counter
// increment batch, and for high-severity findings an escalation record plus a
// review flag. Store failures are logged with enough context to replay later
// and are never retried here nor surfaced to the caller.
func (eng *Engine) persistDetection(ctx context.Context, userID string, res *DetectionResult, contentLength int) {
	ts := time.Now().UTC()

	if err := eng.Store.IncrementCounters(ctx, userID, res.Categories, ts); err != nil {
		storeErrorCount.WithLabelValues("increment").Inc()
		eng.Logger.Error("incrementing safety counters", "err", err, "user", userID, "categories", res.Categories, "ts", ts)
	}
	for _, c := range res.Categories {
		detectionCount.WithLabelValues(string(c)).Inc()
	}

	escalated := false
	if res.RequiresEscalation() {
		fresh := eng.freshHighSeverity(ctx, userID, res.HighSeverity())
		if len(fresh) > 0 {
			rec := counterstore.EscalationRecord{
				UserID:        userID,
				Categories:    res.Categories,
				CreatedAt:     ts,
				Severity:      counterstore.SeverityHigh,
				ContentLength: contentLength,
			}
			if err := eng.Store.CreateEscalation(ctx, rec); err != nil {
				storeErrorCount.WithLabelValues("escalation").Inc()
				eng.Logger.Error("creating escalation record", "err", err, "user", userID, "categories", res.Categories, "ts", ts)
			} else {
				escalated = true
				escalationCount.Inc()
				// mark only after the record landed: a failed write must be
				// retried on the next detection, not deduped away
				eng.markEscalated(ctx, userID, fresh)
			}
			if err := eng.Store.FlagForReview(ctx, userID, res.Categories, counterstore.PriorityHigh); err != nil {
				storeErrorCount.WithLabelValues("flag").Inc()
				eng.Logger.Error("flagging user for review", "err", err, "user", userID, "categories", res.Categories, "ts", ts)
			}
		}
	}

	eng.Logger.Info("detection persisted",
		"user", userID,
		"categories", res.Categories,
		"confidence", res.Confidence,
		"escalated", escalated,
	)
}

// freshHighSeverity filters out categories escalated for this user within the
// dedupe period. Cache errors count as fresh: better a duplicate escalation
// than a missed one.
func (eng *Engine) freshHighSeverity(ctx context.Context, userID string, high []category.Category) []category.Category {
	if eng.Cache == nil {
		return high
	}
	var fresh []category.Category
	for _, c := range high {
		v, err := eng.Cache.Get(ctx, escalationCacheName, dedupeKey(userID, c))
		if err != nil {
			eng.Logger.Warn("escalation dedupe lookup failed", "err", err, "user", userID)
		}
		if v == "" {
			fresh = append(fresh, c)
		}
	}
	return fresh
}

func (eng *Engine) markEscalated(ctx context.Context, userID string, cats []category.Category) {
	if eng.Cache == nil {
		return
	}
	for _, c := range cats {
		if err := eng.Cache.Set(ctx, escalationCacheName, dedupeKey(userID, c), "1", eng.cfg.EscalationDedupePeriod); err != nil {
			eng.Logger.Warn("recording escalation dedupe marker", "err", err, "user", userID)
		}
	}
}

// dedupeKey is a compact hash so cache keys never embed anything derived from
// message content.
func dedupeKey(userID string, c category.Category) string {
	return fmt.Sprintf("%016x", murmur3.Sum64([]byte(userID+"/"+string(c))))
}
