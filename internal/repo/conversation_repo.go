// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// errPairOrder guards the canonical ordering expected by the schema.
var errPairOrder = errors.New("conversation pair must satisfy a < b")

// GetOrCreateConversation returns the conversation for the canonical pair
// (a < b), inserting it if absent. The insert ignores conflicts on the unique
// pair index and the row is read back afterwards, so concurrent callers all
// observe the same winner.
func GetOrCreateConversation(ctx context.Context, db *gorm.DB, a, b uint64) (*domain.Conversation, error) {
	if a >= b {
		return nil, errPairOrder
	}
	tx := db.WithContext(ctx)
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserAID:   a,
		UserBID:   b,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
		DoNothing: true,
	}).Create(c).Error; err != nil {
		return nil, err
	}
	return FindConversation(ctx, db, a, b)
}

// FindConversation fetches the conversation for the canonical pair, or
// ErrNotFound.
func FindConversation(ctx context.Context, db *gorm.DB, a, b uint64) (*domain.Conversation, error) {
	var out domain.Conversation
	if err := db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches a conversation by ID, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var out domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversationsFor returns every conversation userID takes part in.
func ListConversationsFor(ctx context.Context, db *gorm.DB, userID uint64) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
