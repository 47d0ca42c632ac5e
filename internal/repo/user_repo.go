// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the user read model and the skill
// profile corpus consumed by the matcher.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// GetUser fetches a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsers returns the users with the given IDs keyed by ID. Missing IDs are
// simply absent from the map.
func GetUsers(ctx context.Context, db *gorm.DB, ids []uint64) (map[uint64]domain.User, error) {
	out := make(map[uint64]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// UpsertUser inserts the user or refreshes its display fields when the ID
// already exists. Identity is owned upstream; this only mirrors it.
func UpsertUser(ctx context.Context, db *gorm.DB, id uint64, username, email string) error {
	u := &domain.User{ID: id, Username: username, Email: email, CreatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email"}),
		}).
		Create(u).Error
}

// ListProfiles returns every user with HAVE and WANT assertions (and their
// skills) preloaded, ordered by ID ascending. The order is the matcher's
// tie-break order.
func ListProfiles(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Preload("SkillsHave", func(tx *gorm.DB) *gorm.DB { return tx.Order("skill_id ASC") }).
		Preload("SkillsHave.Skill").
		Preload("SkillsWant", func(tx *gorm.DB) *gorm.DB { return tx.Order("skill_id ASC") }).
		Preload("SkillsWant.Skill").
		Order("id ASC").
		Find(&out).Error
	return out, err
}
