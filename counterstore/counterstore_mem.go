package counterstore

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/veilchat/sentinel/category"
)

// memDoc wraps a Document with its own lock, so concurrent increments for the
// same user serialize per document and never lose updates.
type memDoc struct {
	mu  sync.Mutex
	doc Document
}

// MemStore is an in-memory Store, race-safe, for tests and single-process
// deployments.
type MemStore struct {
	docs *xsync.MapOf[string, *memDoc]

	escMu       sync.Mutex
	escalations []EscalationRecord
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		docs: xsync.NewMapOf[string, *memDoc](),
	}
}

func (s *MemStore) getOrCreate(userID string) *memDoc {
	d, _ := s.docs.LoadOrCompute(userID, func() *memDoc {
		return &memDoc{doc: Document{
			UserID:     userID,
			Hits:       make(map[category.Category]int),
			Timestamps: make(map[category.Category][]time.Time),
		}}
	})
	return d
}

func (s *MemStore) IncrementCounters(ctx context.Context, userID string, cats []category.Category, ts time.Time) error {
	if len(cats) == 0 {
		return nil
	}
	d := s.getOrCreate(userID)
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cats {
		d.doc.Hits[c]++
		d.doc.Timestamps[c] = append(d.doc.Timestamps[c], ts)
	}
	d.doc.TotalFlags += len(cats)
	t := ts
	d.doc.LastFlagAt = &t
	return nil
}

func (s *MemStore) FlagForReview(ctx context.Context, userID string, cats []category.Category, priority string) error {
	d := s.getOrCreate(userID)
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().UTC()
	d.doc.FlaggedForReview = true
	d.doc.FlagTimestamp = &now
	d.doc.FlagCategories = category.Dedupe(append(d.doc.FlagCategories, cats...))
	d.doc.ReviewPriority = priority
	return nil
}

func (s *MemStore) CreateEscalation(ctx context.Context, rec EscalationRecord) error {
	s.escMu.Lock()
	defer s.escMu.Unlock()
	s.escalations = append(s.escalations, rec)
	return nil
}

// Escalations returns a copy of all escalation records created so far.
// Intended for tests; the engine itself never reads escalations back.
func (s *MemStore) Escalations() []EscalationRecord {
	s.escMu.Lock()
	defer s.escMu.Unlock()
	out := make([]EscalationRecord, len(s.escalations))
	copy(out, s.escalations)
	return out
}

func (s *MemStore) GetDocument(ctx context.Context, userID string) (*Document, error) {
	d, ok := s.docs.Load(userID)
	if !ok {
		return nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// deep copy so callers can't mutate live state
	out := d.doc
	out.Hits = make(map[category.Category]int, len(d.doc.Hits))
	for c, n := range d.doc.Hits {
		out.Hits[c] = n
	}
	out.Timestamps = make(map[category.Category][]time.Time, len(d.doc.Timestamps))
	for c, ts := range d.doc.Timestamps {
		out.Timestamps[c] = append([]time.Time(nil), ts...)
	}
	out.FlagCategories = append([]category.Category(nil), d.doc.FlagCategories...)
	return &out, nil
}

func (s *MemStore) TrimBefore(ctx context.Context, userID string, cutoff time.Time) error {
	d, ok := s.docs.Load(userID)
	if !ok {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for c, stamps := range d.doc.Timestamps {
		kept := stamps[:0]
		for _, ts := range stamps {
			if !ts.Before(cutoff) {
				kept = append(kept, ts)
			}
		}
		removed := len(stamps) - len(kept)
		if removed == 0 {
			continue
		}
		d.doc.Timestamps[c] = kept
		d.doc.Hits[c] -= removed
		if d.doc.Hits[c] < len(kept) {
			d.doc.Hits[c] = len(kept)
		}
		d.doc.TotalFlags -= removed
	}
	if d.doc.TotalFlags < 0 {
		d.doc.TotalFlags = 0
	}
	return nil
}

func (s *MemStore) ListUsers(ctx context.Context) ([]string, error) {
	var out []string
	s.docs.Range(func(k string, _ *memDoc) bool {
		out = append(out, k)
		return true
	})
	return out, nil
}
