package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/sentinel/cachestore"
	"github.com/veilchat/sentinel/category"
	"github.com/veilchat/sentinel/counterstore"
	"github.com/veilchat/sentinel/lexicon"
	"github.com/veilchat/sentinel/visual"
)

func TestCleanTextNoWrites(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	res := eng.ProcessText(ctx, "Nice weather today", "u1")
	assert.Empty(res.Categories)
	assert.False(res.RequiresEscalation())

	// no store writes at all for clean content
	doc, err := store.GetDocument(ctx, "u1")
	assert.NoError(err)
	assert.Nil(doc)
	assert.Empty(store.Escalations())
}

func TestToxicTextIncrementsCounters(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	res := eng.ProcessText(ctx, "I hate you, you stupid idiot", "u1")
	assert.Contains(res.Categories, category.Toxicity)
	assert.False(res.RequiresEscalation())

	doc, err := store.GetDocument(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(1, doc.Hits[category.Toxicity])
	assert.Len(doc.Timestamps[category.Toxicity], 1)
	assert.NotNil(doc.LastFlagAt)
	assert.False(doc.FlaggedForReview)
	assert.Empty(store.Escalations())
}

func TestGroomingEscalates(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	text := "Let's meet in person, don't tell your parents"
	res := eng.ProcessText(ctx, text, "u1")
	assert.Contains(res.Categories, category.ChildGrooming)
	assert.True(res.RequiresEscalation())

	escs := store.Escalations()
	require.Len(t, escs, 1)
	assert.Equal("u1", escs[0].UserID)
	assert.Contains(escs[0].Categories, category.ChildGrooming)
	assert.Equal(counterstore.SeverityHigh, escs[0].Severity)
	// content length, never the content
	assert.Equal(len([]rune(text)), escs[0].ContentLength)

	doc, err := store.GetDocument(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.True(doc.FlaggedForReview)
	assert.Equal(counterstore.PriorityHigh, doc.ReviewPriority)
	assert.Contains(doc.FlagCategories, category.ChildGrooming)
}

func TestEscalationDedupe(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	text := "Let's meet in person, don't tell your parents"
	eng.ProcessText(ctx, text, "u1")
	eng.ProcessText(ctx, text, "u1")

	// second high-severity hit within the dedupe period: counters still
	// move, but no second escalation record
	assert.Len(store.Escalations(), 1)
	doc, err := store.GetDocument(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(2, doc.Hits[category.ChildGrooming])

	// different user escalates independently
	eng.ProcessText(ctx, text, "u2")
	assert.Len(store.Escalations(), 2)
}

// flakyStore fails the first CreateEscalation and then recovers, like a store
// coming back from a transient outage.
type flakyStore struct {
	*counterstore.MemStore
	failures int
}

func (s *flakyStore) CreateEscalation(ctx context.Context, rec counterstore.EscalationRecord) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("store unavailable")
	}
	return s.MemStore.CreateEscalation(ctx, rec)
}

func TestEscalationRetriedAfterStoreFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := &flakyStore{MemStore: counterstore.NewMemStore(), failures: 1}
	cache := cachestore.NewMemCacheStore(1000, time.Hour)
	eng := NewEngine(slog.Default(), lexicon.Default(), store, cache, DefaultConfig())

	text := "Let's meet in person, don't tell your parents"
	eng.ProcessText(ctx, text, "u1")
	assert.Empty(store.Escalations())

	// the failed write must not have left a dedupe marker: once the store
	// recovers the next detection escalates
	eng.ProcessText(ctx, text, "u1")
	escs := store.Escalations()
	require.Len(t, escs, 1)
	assert.Contains(escs[0].Categories, category.ChildGrooming)

	// and the marker from the successful write dedupes as usual
	eng.ProcessText(ctx, text, "u1")
	assert.Len(store.Escalations(), 1)
}

func TestScamNoEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	res := eng.ProcessText(ctx, "Congratulations you won, click here to claim, wire transfer now", "u1")
	assert.Contains(res.Categories, category.Scam)
	assert.False(res.RequiresEscalation())

	assert.Empty(store.Escalations())
	doc, err := store.GetDocument(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.False(doc.FlaggedForReview)
	assert.GreaterOrEqual(doc.Hits[category.Scam], 1)
}

func TestCategoriesNeverDoubleCounted(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	// analyzer reasons and phrase detector both produce scam for this text;
	// the union must increment the counter once
	res := eng.ProcessText(ctx, "congratulations you won, click here to claim your prize", "u1")
	assert.Equal(res.Categories, category.Dedupe(res.Categories))

	doc, err := store.GetDocument(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(1, doc.Hits[category.Scam])
}

type fakeClassifier struct {
	labels []visual.Label
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, data []byte) ([]visual.Label, error) {
	return f.labels, f.err
}

func TestProcessImage(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	eng.Classifier = &fakeClassifier{labels: []visual.Label{{Class: "nudity", Score: 0.97}}}

	data := []byte{0xFF, 0xD8, 0x00}
	res := eng.ProcessImage(ctx, data, "u1")
	assert.Equal([]category.Category{category.Nudity}, res.Categories)

	doc, err := store.GetDocument(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(1, doc.Hits[category.Nudity])
}

func TestProcessImageClassifierFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, store := EngineTestFixture()
	eng.Classifier = &fakeClassifier{err: errors.New("upstream down")}

	res := eng.ProcessImage(ctx, []byte{0x01}, "u1")
	assert.Empty(res.Categories)

	doc, err := store.GetDocument(ctx, "u1")
	assert.NoError(err)
	assert.Nil(doc)
}

func TestProcessImageWithoutClassifier(t *testing.T) {
	assert := assert.New(t)

	eng, _ := EngineTestFixture()
	res := eng.ProcessImage(context.Background(), []byte{0x01}, "u1")
	assert.Empty(res.Categories)
}

func TestEvaluateAsync(t *testing.T) {
	assert := assert.New(t)

	eng, store := EngineTestFixture()
	eng.Evaluate("I hate you, you stupid idiot", "u1")

	// fire-and-forget: poll the store until the background goroutine lands
	assert.Eventually(func() bool {
		doc, err := store.GetDocument(context.Background(), "u1")
		return err == nil && doc != nil && doc.Hits[category.Toxicity] == 1
	}, 2*time.Second, 10*time.Millisecond)
}
