// Package services – RecommendationService
//
// RecommendationService loads the skill corpus, runs the matcher, and
// annotates each ranked mentor with display data. Results may be cached in a
// RankCache; profile edits invalidate it.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/match"
	"github.com/tbourn/skillswap-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RankCache stores serialized rankings under opaque keys, partitioned by a
// generation that Invalidate advances. Get reports the generation it read;
// Set writes into the generation given, so a fill computed before an
// Invalidate is never served after it.
type RankCache interface {
	Get(ctx context.Context, key string) (val []byte, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, key string, val []byte, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Candidate is a ranked mentor with display data.
type Candidate struct {
	UserID     uint64            `json:"id"`
	Username   string            `json:"name"`
	Score      float64           `json:"score"`
	SkillsHave []match.HaveSkill `json:"skills_have"`
	SkillsWant []string          `json:"skills_want"`
}

// RecommendationService ranks mentors for a learner.
type RecommendationService struct {
	DB    *gorm.DB
	Cache RankCache // optional

	DefaultTopK int
	MinScore    float64
	CacheTTL    time.Duration
}

// NewRecommendationService constructs a RecommendationService. cache may be
// nil.
func NewRecommendationService(db *gorm.DB, cache RankCache, topK int, minScore float64, ttl time.Duration) *RecommendationService {
	return &RecommendationService{DB: db, Cache: cache, DefaultTopK: topK, MinScore: minScore, CacheTTL: ttl}
}

// Recommend returns up to topK mentors for learnerID. topK <= 0 uses the
// service default; a nil minScore uses the service floor.
func (s *RecommendationService) Recommend(ctx context.Context, learnerID uint64, topK int, minScore *float64) ([]Candidate, error) {
	if topK <= 0 {
		topK = s.DefaultTopK
	}
	floor := s.MinScore
	if minScore != nil {
		floor = *minScore
	}

	ctx, span := otel.Tracer("services/RecommendationService").Start(ctx, "Recommend",
		trace.WithAttributes(
			attribute.String("user.id", strconv.FormatUint(learnerID, 10)),
			attribute.Int("top_k", topK),
			attribute.Float64("min_score", floor),
		),
	)
	defer span.End()

	key := fmt.Sprintf("%d:%d:%g", learnerID, topK, floor)
	// gen is read before the corpus; a fill is only stored when it is known.
	var (
		gen    int64
		fillOK bool
	)
	if s.Cache != nil {
		raw, g, ok, err := s.Cache.Get(ctx, key)
		if err == nil {
			gen, fillOK = g, true
		}
		if err == nil && ok {
			var cached []Candidate
			if json.Unmarshal(raw, &cached) == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return cached, nil
			}
		}
	}

	users, err := repo.ListProfiles(ctx, s.DB)
	if err != nil {
		return nil, storageErr("recommend.load_corpus", err)
	}
	corpus := make([]match.Profile, len(users))
	for i, u := range users {
		corpus[i] = toProfile(u)
	}

	ranked := match.Rank(learnerID, corpus, topK, match.WithMinScore(floor))
	out := make([]Candidate, len(ranked))
	for i, m := range ranked {
		out[i] = Candidate{
			UserID:     m.Profile.ID,
			Username:   m.Profile.Name,
			Score:      m.Score,
			SkillsHave: m.Profile.SkillsHave,
			SkillsWant: m.Profile.SkillsWant,
		}
	}
	span.SetAttributes(attribute.Int("results", len(out)))

	if fillOK {
		if raw, err := json.Marshal(out); err == nil {
			_ = s.Cache.Set(ctx, gen, key, raw, s.CacheTTL)
		}
	}
	return out, nil
}

// toProfile converts a preloaded user into the matcher's input shape.
func toProfile(u domain.User) match.Profile {
	p := match.Profile{
		ID:         u.ID,
		Name:       u.Username,
		SkillsHave: make([]match.HaveSkill, 0, len(u.SkillsHave)),
		SkillsWant: make([]string, 0, len(u.SkillsWant)),
	}
	for _, h := range u.SkillsHave {
		p.SkillsHave = append(p.SkillsHave, match.HaveSkill{Name: h.Skill.Name, Level: h.Level})
	}
	for _, w := range u.SkillsWant {
		p.SkillsWant = append(p.SkillsWant, w.Skill.Name)
	}
	return p
}
