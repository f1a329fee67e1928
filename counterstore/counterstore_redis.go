package counterstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veilchat/sentinel/category"
)

const (
	redisDocPrefix     = "safety/"
	redisEscalationKey = "escalations"
)

// RedisStore persists counter documents as one hash per user plus one sorted
// set per user/category for timestamps (scored by unix milliseconds).
// Escalation records are pushed onto a list consumed by the review process.
type RedisStore struct {
	Client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisStore{Client: rdb}, nil
}

func docKey(userID string) string {
	return redisDocPrefix + userID
}

func tsKey(userID string, c category.Category) string {
	return redisDocPrefix + userID + "/" + TimestampsField(c)
}

func (s *RedisStore) IncrementCounters(ctx context.Context, userID string, cats []category.Category, ts time.Time) error {
	if len(cats) == 0 {
		return nil
	}
	// single MULTI/EXEC round-trip so the hit counters, timestamp sets, and
	// aggregate fields move together
	multi := s.Client.TxPipeline()
	key := docKey(userID)
	for _, c := range cats {
		multi.HIncrBy(ctx, key, HitsField(c), 1)
		// member must be unique: concurrent detections in the same
		// millisecond are distinct hits
		multi.ZAdd(ctx, tsKey(userID, c), redis.Z{
			Score:  float64(ts.UnixMilli()),
			Member: uuid.NewString(),
		})
	}
	multi.HIncrBy(ctx, key, FieldTotalFlags, int64(len(cats)))
	multi.HSet(ctx, key, FieldLastFlagAt, ts.UTC().Format(time.RFC3339Nano))
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisStore) FlagForReview(ctx context.Context, userID string, cats []category.Category, priority string) error {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = string(c)
	}
	return s.Client.HSet(ctx, docKey(userID),
		FieldFlaggedForReview, "1",
		FieldFlagTimestamp, time.Now().UTC().Format(time.RFC3339Nano),
		FieldFlagCategories, strings.Join(ids, ","),
		FieldReviewPriority, priority,
	).Err()
}

func (s *RedisStore) CreateEscalation(ctx context.Context, rec EscalationRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding escalation record: %w", err)
	}
	return s.Client.LPush(ctx, redisEscalationKey, raw).Err()
}

func (s *RedisStore) GetDocument(ctx context.Context, userID string) (*Document, error) {
	fields, err := s.Client.HGetAll(ctx, docKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	doc := Document{
		UserID:     userID,
		Hits:       make(map[category.Category]int),
		Timestamps: make(map[category.Category][]time.Time),
	}
	for field, val := range fields {
		switch field {
		case FieldTotalFlags:
			doc.TotalFlags, _ = strconv.Atoi(val)
		case FieldLastFlagAt:
			if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
				doc.LastFlagAt = &t
			}
		case FieldFlaggedForReview:
			doc.FlaggedForReview = val == "1"
		case FieldFlagTimestamp:
			if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
				doc.FlagTimestamp = &t
			}
		case FieldFlagCategories:
			for _, id := range strings.Split(val, ",") {
				if id != "" {
					doc.FlagCategories = append(doc.FlagCategories, category.Category(id))
				}
			}
		case FieldReviewPriority:
			doc.ReviewPriority = val
		default:
			if cat, ok := strings.CutSuffix(field, "_hits_30d"); ok {
				doc.Hits[category.Category(cat)], _ = strconv.Atoi(val)
			}
		}
	}

	for c := range doc.Hits {
		zs, err := s.Client.ZRangeWithScores(ctx, tsKey(userID, c), 0, -1).Result()
		if err != nil {
			return nil, err
		}
		for _, z := range zs {
			doc.Timestamps[c] = append(doc.Timestamps[c], time.UnixMilli(int64(z.Score)).UTC())
		}
	}
	return &doc, nil
}

// trimScript removes expired timestamps and decrements the per-category and
// total counters in one atomic step, so counters and timestamp sets can't
// diverge under concurrent increments.
// KEYS[1] = timestamp zset, KEYS[2] = document hash
// ARGV[1] = cutoff score, ARGV[2] = hits field, ARGV[3] = total field
var trimScript = redis.NewScript(`
local removed = redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if removed > 0 then
  redis.call('HINCRBY', KEYS[2], ARGV[2], -removed)
  redis.call('HINCRBY', KEYS[2], ARGV[3], -removed)
end
return removed
`)

func (s *RedisStore) TrimBefore(ctx context.Context, userID string, cutoff time.Time) error {
	// "(..." makes the range exclusive: entries exactly at the cutoff stay
	cutoffArg := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	for _, c := range category.All() {
		err := trimScript.Run(ctx, s.Client,
			[]string{tsKey(userID, c), docKey(userID)},
			cutoffArg, HitsField(c), FieldTotalFlags,
		).Err()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("trimming %s for %s: %w", c, userID, err)
		}
	}
	return nil
}

func (s *RedisStore) ListUsers(ctx context.Context) ([]string, error) {
	var out []string
	iter := s.Client.Scan(ctx, 0, redisDocPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), redisDocPrefix)
		// skip per-category timestamp keys
		if strings.Contains(key, "/") {
			continue
		}
		out = append(out, key)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
