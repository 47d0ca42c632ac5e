// Package handlers holds the transport-thin Gin handlers of the public API.
//
// Handlers validate input, call application services through the narrow
// interfaces below, and translate results into HTTP responses. Every route is
// mounted behind middleware.Authenticate, so the caller's id is always in the
// Gin context.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/http/middleware"
	"github.com/tbourn/skillswap-backend/internal/realtime"
	"github.com/tbourn/skillswap-backend/internal/repo"
	"github.com/tbourn/skillswap-backend/internal/services"
	"github.com/tbourn/skillswap-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// Recommender ranks mentors for a learner.
type Recommender interface {
	Recommend(ctx context.Context, learnerID uint64, topK int, minScore *float64) ([]services.Candidate, error)
}

// ProfileService manages the skill catalog and a user's skill assertions.
type ProfileService interface {
	Catalog(ctx context.Context) ([]domain.Skill, error)
	Get(ctx context.Context, userID uint64) (*domain.User, error)
	SetHave(ctx context.Context, userID, skillID uint64, level string) error
	RemoveHave(ctx context.Context, userID, skillID uint64) error
	SetWant(ctx context.Context, userID, skillID uint64) error
	RemoveWant(ctx context.Context, userID, skillID uint64) error
}

// RequestService drives the connection request lifecycle.
type RequestService interface {
	Create(ctx context.Context, from, to uint64, message string) (*domain.ConnectionRequest, error)
	Get(ctx context.Context, id string, actor uint64) (*domain.ConnectionRequest, error)
	Act(ctx context.Context, requestID string, actor uint64, action string) (*services.ActionResult, error)
	ListIncoming(ctx context.Context, userID uint64) ([]domain.ConnectionRequest, error)
	ListOutgoing(ctx context.Context, userID uint64) ([]domain.ConnectionRequest, error)
	ListConnections(ctx context.Context, userID uint64) ([]services.Connection, error)
}

// ConversationService resolves conversations for their participants.
type ConversationService interface {
	Get(ctx context.Context, id string, actor uint64) (*domain.Conversation, error)
}

// MessageService lists persisted chat history.
type MessageService interface {
	ListPage(ctx context.Context, roomID string, page, pageSize int) ([]domain.ChatMessage, int64, error)
}

// historyVersioner is optionally implemented by a MessageService to enable
// ETag revalidation of history pages.
type historyVersioner interface {
	Stats(ctx context.Context, roomID string) (repo.RoomStats, error)
}

// IdempotencyStore records and replays idempotent creations.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error)
	Record(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

// Relay serves websocket sessions for a room.
type Relay interface {
	Serve(w http.ResponseWriter, r *http.Request, up *websocket.Upgrader, kind realtime.Kind, roomID string, userID uint64) error
}

//
// Handler wiring
//

// Deps are the services the handlers depend on. Nil members disable the
// routes that need them.
type Deps struct {
	Recommender   Recommender
	Profiles      ProfileService
	Requests      RequestService
	Conversations ConversationService
	Messages      MessageService
	Idempotency   IdempotencyStore
	Relay         Relay
	Upgrader      *websocket.Upgrader
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	recSvc  Recommender
	profSvc ProfileService
	reqSvc  RequestService
	convSvc ConversationService
	msgSvc  MessageService
	idem    IdempotencyStore
	relay   Relay
	up      *websocket.Upgrader
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	up := d.Upgrader
	if up == nil {
		up = realtime.Upgrader(nil)
	}
	return &Handlers{
		recSvc:  d.Recommender,
		profSvc: d.Profiles,
		reqSvc:  d.Requests,
		convSvc: d.Conversations,
		msgSvc:  d.Messages,
		idem:    d.Idempotency,
		relay:   d.Relay,
		up:      up,
	}
}

//
// Helpers
//

// currentUser returns the authenticated caller, failing with 401 when the
// route was mounted without authentication.
func currentUser(c *gin.Context) (uint64, bool) {
	uid, found := middleware.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return uid, found
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return v, true
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	pageSize = utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	return utils.ClampPage(page, pageSize, utils.DefaultPageSize, utils.MaxPageSize)
}
