// Package counterstore is the boundary to the persistent per-user safety
// counter and escalation store. Counters are 30-day rolling: one hit counter
// and one timestamp list per category, plus aggregate fields. Writes are
// atomic increments and appends, never read-modify-write, so concurrent
// evaluations of the same user's messages cannot lose updates. Only
// TrimBefore removes entries.
package counterstore

import (
	"context"
	"time"

	"github.com/veilchat/sentinel/category"
)

// RollingWindow is the retention period for per-category hits and timestamps.
const RollingWindow = 30 * 24 * time.Hour

const (
	PriorityHigh = "HIGH"
	SeverityHigh = "HIGH"
)

// Document field-name contract, shared with downstream review tooling.
const (
	FieldTotalFlags       = "total_flags_30d"
	FieldLastFlagAt       = "last_flag_at"
	FieldFlaggedForReview = "flagged_for_review"
	FieldFlagTimestamp    = "flag_timestamp"
	FieldFlagCategories   = "flag_categories"
	FieldReviewPriority   = "review_priority"
)

// HitsField returns the rolling hit-counter field name for a category.
func HitsField(c category.Category) string {
	return string(c) + "_hits_30d"
}

// TimestampsField returns the timestamp-list field name for a category.
func TimestampsField(c category.Category) string {
	return string(c) + "_timestamps"
}

// Document is the per-user safety counter record. Created lazily on first
// detection; a nil Document means no detections on record.
type Document struct {
	UserID     string                            `json:"user_id"`
	Hits       map[category.Category]int         `json:"hits"`
	Timestamps map[category.Category][]time.Time `json:"timestamps"`
	TotalFlags int                               `json:"total_flags_30d"`
	LastFlagAt *time.Time                        `json:"last_flag_at,omitempty"`

	FlaggedForReview bool                `json:"flagged_for_review,omitempty"`
	FlagTimestamp    *time.Time          `json:"flag_timestamp,omitempty"`
	FlagCategories   []category.Category `json:"flag_categories,omitempty"`
	ReviewPriority   string              `json:"review_priority,omitempty"`
}

// EscalationRecord is a durable, content-free record of a high-severity
// detection. Write-once: the engine creates it and never reads it back.
type EscalationRecord struct {
	UserID        string              `json:"user_id"`
	Categories    []category.Category `json:"categories"`
	CreatedAt     time.Time           `json:"created_at"`
	Severity      string              `json:"severity"`
	ContentLength int                 `json:"content_length"`
}

type Store interface {
	// IncrementCounters applies one detection: per category, increment the
	// rolling hit counter and append ts to the timestamp list; bump
	// total_flags_30d by len(cats) and set last_flag_at. One atomic
	// merge-write per call.
	IncrementCounters(ctx context.Context, userID string, cats []category.Category, ts time.Time) error
	// FlagForReview marks the user's record for manual review.
	FlagForReview(ctx context.Context, userID string, cats []category.Category, priority string) error
	// CreateEscalation persists a new escalation record.
	CreateEscalation(ctx context.Context, rec EscalationRecord) error
	// GetDocument returns the user's counter document, or nil if none exists.
	GetDocument(ctx context.Context, userID string) (*Document, error)
	// TrimBefore removes, per category, all timestamps older than cutoff and
	// decrements the matching counters by the number removed, atomically per
	// category. Idempotent.
	TrimBefore(ctx context.Context, userID string, cutoff time.Time) error
	// ListUsers returns all user IDs with a counter document.
	ListUsers(ctx context.Context) ([]string, error)
}
