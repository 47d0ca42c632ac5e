// Package services – ConversationService
//
// ConversationService is the registry of durable conversations: exactly one
// per unordered pair of users, created lazily when a connection request is
// accepted. Pairs are stored in canonical (min, max) order and creation is an
// atomic insert-if-absent, so concurrent acceptances converge on one row.
package services

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConversationService resolves and creates conversations.
type ConversationService struct {
	DB *gorm.DB
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{DB: db}
}

// canonicalPair orders two user IDs ascending.
func canonicalPair(x, y uint64) (uint64, uint64) {
	if x < y {
		return x, y
	}
	return y, x
}

// GetOrCreate returns the conversation between x and y in either argument
// order, creating it if needed.
func (s *ConversationService) GetOrCreate(ctx context.Context, x, y uint64) (*domain.Conversation, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "GetOrCreate",
		trace.WithAttributes(
			attribute.String("user.a", strconv.FormatUint(x, 10)),
			attribute.String("user.b", strconv.FormatUint(y, 10)),
		),
	)
	defer span.End()

	return s.getOrCreate(ctx, s.DB, x, y)
}

// getOrCreate runs on db, which may be an open transaction.
func (s *ConversationService) getOrCreate(ctx context.Context, db *gorm.DB, x, y uint64) (*domain.Conversation, error) {
	if x == y {
		return nil, ErrInvalidTarget
	}
	a, b := canonicalPair(x, y)
	c, err := repo.GetOrCreateConversation(ctx, db, a, b)
	if err != nil {
		return nil, storageErr("conversation.get_or_create", err)
	}
	return c, nil
}

// Get returns a conversation if actor is one of its participants.
func (s *ConversationService) Get(ctx context.Context, id string, actor uint64) (*domain.Conversation, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("conversation.id", id)),
	)
	defer span.End()

	c, err := repo.GetConversation(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("conversation.get", err)
	}
	if !c.HasParticipant(actor) {
		return nil, ErrNotAuthorized
	}
	return c, nil
}
