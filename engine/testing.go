package engine

import (
	"log/slog"
	"time"

	"github.com/veilchat/sentinel/cachestore"
	"github.com/veilchat/sentinel/counterstore"
	"github.com/veilchat/sentinel/lexicon"
)

// EngineTestFixture returns an engine backed by in-memory stores and the
// default lexicon. Intentionally exported, for use in other packages' tests.
func EngineTestFixture() (*Engine, *counterstore.MemStore) {
	store := counterstore.NewMemStore()
	cache := cachestore.NewMemCacheStore(1000, time.Hour)
	eng := NewEngine(slog.Default(), lexicon.Default(), store, cache, DefaultConfig())
	return eng, store
}
