// Package services – ProfileService
//
// ProfileService manages the local user read model and each user's skill
// assertions. Any change to a HAVE or WANT set invalidates cached
// recommendations.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/match"
	"github.com/tbourn/skillswap-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProfileService exposes the skill catalog and self-service skill edits.
type ProfileService struct {
	DB *gorm.DB
	// Cache, when set, is invalidated on every assertion change.
	Cache RankCache
}

// NewProfileService constructs a ProfileService. cache may be nil.
func NewProfileService(db *gorm.DB, cache RankCache) *ProfileService {
	return &ProfileService{DB: db, Cache: cache}
}

// Sync mirrors an identity from the upstream identity system into the local
// read model. Blank usernames are ignored.
func (s *ProfileService) Sync(ctx context.Context, userID uint64, username, email string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}
	err := repo.UpsertUser(ctx, s.DB, userID, username, strings.TrimSpace(email))
	return storageErr("profile.sync", err)
}

// Catalog lists all skills.
func (s *ProfileService) Catalog(ctx context.Context) ([]domain.Skill, error) {
	out, err := repo.ListSkills(ctx, s.DB)
	return out, storageErr("profile.catalog", err)
}

// Get returns a user with HAVE and WANT assertions loaded.
func (s *ProfileService) Get(ctx context.Context, userID uint64) (*domain.User, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", strconv.FormatUint(userID, 10))),
	)
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("profile.get", err)
	}
	if u.SkillsHave, err = repo.ListHave(ctx, s.DB, userID); err != nil {
		return nil, storageErr("profile.get", err)
	}
	if u.SkillsWant, err = repo.ListWant(ctx, s.DB, userID); err != nil {
		return nil, storageErr("profile.get", err)
	}
	return u, nil
}

// SetHave asserts userID can teach skillID at level, replacing any earlier
// level.
func (s *ProfileService) SetHave(ctx context.Context, userID, skillID uint64, level string) error {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "SetHave",
		trace.WithAttributes(
			attribute.String("user.id", strconv.FormatUint(userID, 10)),
			attribute.String("skill.id", strconv.FormatUint(skillID, 10)),
			attribute.String("skill.level", level),
		),
	)
	defer span.End()

	level = strings.ToLower(strings.TrimSpace(level))
	if !match.ValidLevel(level) {
		return ErrInvalidLevel
	}
	if err := s.ensure(ctx, userID, skillID); err != nil {
		return err
	}
	if err := repo.UpsertHave(ctx, s.DB, userID, skillID, level); err != nil {
		return storageErr("profile.set_have", err)
	}
	s.invalidate(ctx)
	return nil
}

// RemoveHave deletes a HAVE assertion.
func (s *ProfileService) RemoveHave(ctx context.Context, userID, skillID uint64) error {
	err := repo.DeleteHave(ctx, s.DB, userID, skillID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("profile.remove_have", err)
	}
	s.invalidate(ctx)
	return nil
}

// SetWant records that userID wants to learn skillID.
func (s *ProfileService) SetWant(ctx context.Context, userID, skillID uint64) error {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "SetWant",
		trace.WithAttributes(
			attribute.String("user.id", strconv.FormatUint(userID, 10)),
			attribute.String("skill.id", strconv.FormatUint(skillID, 10)),
		),
	)
	defer span.End()

	if err := s.ensure(ctx, userID, skillID); err != nil {
		return err
	}
	if err := repo.UpsertWant(ctx, s.DB, userID, skillID); err != nil {
		return storageErr("profile.set_want", err)
	}
	s.invalidate(ctx)
	return nil
}

// RemoveWant deletes a WANT assertion.
func (s *ProfileService) RemoveWant(ctx context.Context, userID, skillID uint64) error {
	err := repo.DeleteWant(ctx, s.DB, userID, skillID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("profile.remove_want", err)
	}
	s.invalidate(ctx)
	return nil
}

// ensure checks that both the user and the skill exist.
func (s *ProfileService) ensure(ctx context.Context, userID, skillID uint64) error {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("profile.ensure", err)
	}
	if _, err := repo.GetSkill(ctx, s.DB, skillID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("profile.ensure", err)
	}
	return nil
}

// invalidate drops cached rankings. Failures are tolerated: stale entries
// expire with the cache TTL.
func (s *ProfileService) invalidate(ctx context.Context) {
	if s.Cache != nil {
		_ = s.Cache.Invalidate(ctx)
	}
}
