package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// memCache is an in-process RankCache used to observe cache traffic. Entries
// are partitioned by generation like the Redis cache.
type memCache struct {
	mu          sync.Mutex
	gen         int64
	data        map[string][]byte
	gets, sets  int
	invalidated int

	// beforeSet, when set, runs once at the start of the next Set.
	beforeSet func()
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func memKey(gen int64, key string) string { return strconv.FormatInt(gen, 10) + ":" + key }

func (m *memCache) Get(_ context.Context, key string) ([]byte, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[memKey(m.gen, key)]
	return v, m.gen, ok, nil
}

func (m *memCache) Set(_ context.Context, gen int64, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	hook := m.beforeSet
	m.beforeSet = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[memKey(gen, key)] = val
	return nil
}

func (m *memCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
	m.gen++
	return nil
}

// seedSkills inserts catalog entries and returns their IDs by name.
func seedSkills(t *testing.T, db *gorm.DB, names ...string) map[string]uint64 {
	t.Helper()
	out := make(map[string]uint64, len(names))
	for _, n := range names {
		s := &domain.Skill{Name: n}
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed skill %q: %v", n, err)
		}
		out[n] = s.ID
	}
	return out
}

func TestRecommendationService_RanksFromStore(t *testing.T) {
	db := newSvcDB(t, threeUsers()...)
	ids := seedSkills(t, db, "Django", "React")
	profiles := NewProfileService(db, nil)
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	must(profiles.SetWant(ctx, 1, ids["Django"]))
	must(profiles.SetWant(ctx, 1, ids["React"]))
	must(profiles.SetHave(ctx, 2, ids["Django"], "advanced"))
	must(profiles.SetHave(ctx, 2, ids["React"], "intermediate"))
	must(profiles.SetHave(ctx, 3, ids["React"], "beginner"))

	s := NewRecommendationService(db, nil, 5, 0, time.Minute)
	got, err := s.Recommend(ctx, 1, 0, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(got) != 2 || got[0].UserID != 2 || got[1].UserID != 3 {
		t.Fatalf("unexpected ranking: %+v", got)
	}
	if math.Abs(got[0].Score-5/math.Sqrt(26)) > 1e-9 {
		t.Fatalf("score=%v", got[0].Score)
	}
	if got[0].Username != "mentor" || len(got[0].SkillsHave) != 2 {
		t.Fatalf("display data missing: %+v", got[0])
	}

	floor := 0.9
	if got, _ := s.Recommend(ctx, 1, 0, &floor); len(got) != 1 {
		t.Fatalf("min score override not applied: %+v", got)
	}
	if got, _ := s.Recommend(ctx, 1, 1, nil); len(got) != 1 || got[0].UserID != 2 {
		t.Fatalf("topK not applied: %+v", got)
	}
	// A learner with no wants gets nothing.
	if got, _ := s.Recommend(ctx, 2, 0, nil); len(got) != 0 {
		t.Fatalf("expected empty for learner without wants, got %+v", got)
	}
	// Unknown learner gets nothing.
	if got, err := s.Recommend(ctx, 42, 0, nil); err != nil || len(got) != 0 {
		t.Fatalf("expected empty for unknown learner, got %+v err=%v", got, err)
	}
}

func TestRecommendationService_CacheHitAndInvalidation(t *testing.T) {
	db := newSvcDB(t, threeUsers()...)
	ids := seedSkills(t, db, "Go")
	cache := newMemCache()
	profiles := NewProfileService(db, cache)
	s := NewRecommendationService(db, cache, 5, 0, time.Minute)
	ctx := context.Background()

	if err := profiles.SetWant(ctx, 1, ids["Go"]); err != nil {
		t.Fatalf("SetWant: %v", err)
	}
	if err := profiles.SetHave(ctx, 2, ids["Go"], "advanced"); err != nil {
		t.Fatalf("SetHave: %v", err)
	}
	if cache.invalidated != 2 {
		t.Fatalf("expected 2 invalidations, got %d", cache.invalidated)
	}

	first, err := s.Recommend(ctx, 1, 0, nil)
	if err != nil || len(first) != 1 || cache.sets != 1 {
		t.Fatalf("first=%+v err=%v sets=%d", first, err, cache.sets)
	}

	// Drop the data behind the cache's back: a hit must still be served.
	if err := db.Where("user_id = ?", 2).Delete(&domain.SkillHave{}).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	cached, err := s.Recommend(ctx, 1, 0, nil)
	if err != nil || len(cached) != 1 || cached[0].UserID != 2 || cache.sets != 1 {
		t.Fatalf("expected cache hit, got %+v err=%v sets=%d", cached, err, cache.sets)
	}

	// A profile change invalidates; the next call recomputes.
	if err := profiles.SetHave(ctx, 3, ids["Go"], "beginner"); err != nil {
		t.Fatalf("SetHave: %v", err)
	}
	fresh, err := s.Recommend(ctx, 1, 0, nil)
	if err != nil || len(fresh) != 1 || fresh[0].UserID != 3 {
		t.Fatalf("expected recomputed ranking, got %+v err=%v", fresh, err)
	}
}

func TestRecommendationService_StorageUnavailable(t *testing.T) {
	db := newSvcDB(t)
	s := NewRecommendationService(db, nil, 5, 0, time.Minute)
	closeDB(t, db)
	if _, err := s.Recommend(context.Background(), 1, 0, nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestRecommendationService_EditDuringFillIsNotCached(t *testing.T) {
	db := newSvcDB(t, threeUsers()...)
	ids := seedSkills(t, db, "React")
	cache := newMemCache()
	profiles := NewProfileService(db, cache)
	s := NewRecommendationService(db, cache, 5, 0, time.Minute)
	ctx := context.Background()

	if err := profiles.SetWant(ctx, 1, ids["React"]); err != nil {
		t.Fatalf("SetWant: %v", err)
	}
	if err := profiles.SetHave(ctx, 2, ids["React"], "advanced"); err != nil {
		t.Fatalf("SetHave: %v", err)
	}

	// The mentor drops the skill after the corpus was read but before the
	// ranking is stored.
	var editErr error
	cache.beforeSet = func() { editErr = profiles.RemoveHave(ctx, 2, ids["React"]) }

	first, err := s.Recommend(ctx, 1, 0, nil)
	if err != nil || len(first) != 1 || first[0].UserID != 2 {
		t.Fatalf("first=%+v err=%v", first, err)
	}
	if editErr != nil {
		t.Fatalf("RemoveHave: %v", editErr)
	}

	second, err := s.Recommend(ctx, 1, 0, nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("stale ranking served after invalidation: %+v", second)
	}
}
