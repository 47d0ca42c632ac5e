// Package services – MessageService
//
// MessageService persists and pages chat room history. The realtime relay
// calls Save for every inbound chat line; the HTTP layer calls ListPage to
// replay history when a client opens a room.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include room identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/repo"
	"github.com/tbourn/skillswap-backend/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultSenderName is stored when a frame carries no sender.
const defaultSenderName = "Unknown"

// MessageService coordinates chat message persistence.
type MessageService struct {
	DB *gorm.DB

	// MaxRunes caps the stored text length. Zero disables the check.
	MaxRunes int
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, maxRunes int) *MessageService {
	return &MessageService{DB: db, MaxRunes: maxRunes}
}

// Save trims and stores a chat line for roomID with a server timestamp.
// Blank text yields ErrEmptyInput and nothing is stored.
func (s *MessageService) Save(ctx context.Context, roomID, senderName, text string) (*domain.ChatMessage, error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "Save",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	text = strings.TrimSpace(text)
	if roomID == "" || text == "" {
		return nil, ErrEmptyInput
	}
	if s.MaxRunes > 0 && utf8.RuneCountInString(text) > s.MaxRunes {
		return nil, ErrTooLong
	}
	senderName = strings.TrimSpace(senderName)
	if senderName == "" {
		senderName = defaultSenderName
	}
	if utf8.RuneCountInString(senderName) > 150 {
		senderName = string([]rune(senderName)[:150])
	}

	m, err := repo.CreateMessage(ctx, s.DB, roomID, senderName, text)
	if err != nil {
		return nil, storageErr("message.save", err)
	}
	return m, nil
}

// ListPage returns a page of a room's history in ascending order along with
// the total message count.
func (s *MessageService) ListPage(ctx context.Context, roomID string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = utils.ClampPage(page, pageSize, utils.DefaultPageSize, 0)
	offset := utils.Offset(page, pageSize)

	total, err := repo.CountMessages(ctx, s.DB, roomID)
	if err != nil {
		return nil, 0, storageErr("message.count", err)
	}
	if total == 0 {
		return []domain.ChatMessage{}, 0, nil
	}

	items, err := repo.ListMessagesPage(ctx, s.DB, roomID, offset, pageSize)
	if err != nil {
		return nil, 0, storageErr("message.list", err)
	}
	return items, total, nil
}

// Stats reports the room's history version for conditional GETs.
func (s *MessageService) Stats(ctx context.Context, roomID string) (repo.RoomStats, error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	st, err := repo.MessageStats(ctx, s.DB, roomID)
	if err != nil {
		return repo.RoomStats{}, storageErr("message.stats", err)
	}
	return st, nil
}
