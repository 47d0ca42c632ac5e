// Package services – RequestService
//
// RequestService owns the connection request lifecycle:
//
//	pending --accept--> accepted   (to_user only; creates the conversation)
//	pending --reject--> rejected   (to_user only)
//	pending --cancel--> (deleted)  (from_user only)
//
// Every transition is a conditional write against the pending status, so of
// two concurrent actors exactly one wins and the other gets
// ErrAlreadyProcessed. Accepting and creating the conversation share one
// transaction.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Actions accepted by Act.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
	ActionCancel = "cancel"
)

// StatusCancelled is reported by Act for a cancel; the record itself is
// deleted, so the value is never stored.
const StatusCancelled = "cancelled"

// Connection roles, from the caller's point of view.
const (
	RoleLearner = "learner"
	RoleTeacher = "teacher"
)

// ActionResult is the outcome of Act.
type ActionResult struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversation_id,omitempty"` // set on accept
}

// Connection is an accepted request annotated for one of its parties.
type Connection struct {
	RequestID      string    `json:"request_id"`
	OtherUserID    uint64    `json:"user_id"`
	OtherUsername  string    `json:"username"`
	OtherEmail     string    `json:"email"`
	Role           string    `json:"role"`
	ConversationID string    `json:"conversation_id,omitempty"` // empty when no conversation exists yet
	CreatedAt      time.Time `json:"created_at"`
}

// RequestService implements the connection request state machine.
type RequestService struct {
	DB            *gorm.DB
	Conversations *ConversationService

	// MaxMessageRunes caps the optional note. Zero disables the check.
	MaxMessageRunes int
}

// NewRequestService constructs a RequestService sharing db with its
// conversation registry.
func NewRequestService(db *gorm.DB, maxMessageRunes int) *RequestService {
	return &RequestService{
		DB:              db,
		Conversations:   NewConversationService(db),
		MaxMessageRunes: maxMessageRunes,
	}
}

// Create stores a pending request from -> to.
func (s *RequestService) Create(ctx context.Context, from, to uint64, message string) (*domain.ConnectionRequest, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.from", strconv.FormatUint(from, 10)),
			attribute.String("user.to", strconv.FormatUint(to, 10)),
		),
	)
	defer span.End()

	if from == to {
		return nil, ErrInvalidTarget
	}
	message = strings.TrimSpace(message)
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	users, err := repo.GetUsers(ctx, s.DB, []uint64{from, to})
	if err != nil {
		return nil, storageErr("request.create", err)
	}
	if _, ok := users[to]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := users[from]; !ok {
		return nil, ErrNotFound
	}

	r, err := repo.CreateRequest(ctx, s.DB, from, to, message)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDuplicateActive
	}
	if err != nil {
		return nil, storageErr("request.create", err)
	}
	r.FromUser, r.ToUser = users[from], users[to]
	return r, nil
}

// Get returns a request visible to actor (either party).
func (s *RequestService) Get(ctx context.Context, id string, actor uint64) (*domain.ConnectionRequest, error) {
	r, err := repo.GetRequest(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("request.get", err)
	}
	if r.FromUserID != actor && r.ToUserID != actor {
		return nil, ErrNotAuthorized
	}
	return r, nil
}

// Act applies accept, reject, or cancel to a request on behalf of actor.
func (s *RequestService) Act(ctx context.Context, requestID string, actor uint64, action string) (*ActionResult, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Act",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.action", action),
			attribute.String("user.id", strconv.FormatUint(actor, 10)),
		),
	)
	defer span.End()

	action = strings.ToLower(strings.TrimSpace(action))
	switch action {
	case ActionAccept, ActionReject, ActionCancel:
	default:
		return nil, ErrInvalidAction
	}

	r, err := repo.GetRequest(ctx, s.DB, requestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("request.act", err)
	}

	if action == ActionCancel {
		return s.cancel(ctx, r, actor)
	}

	if r.ToUserID != actor {
		return nil, ErrNotAuthorized
	}
	if r.Status != domain.StatusPending {
		return nil, ErrAlreadyProcessed
	}

	if action == ActionReject {
		ok, err := repo.TransitionRequest(ctx, s.DB, r.ID, domain.StatusPending, domain.StatusRejected)
		if err != nil {
			return nil, storageErr("request.reject", err)
		}
		if !ok {
			return nil, ErrAlreadyProcessed
		}
		return &ActionResult{Status: domain.StatusRejected}, nil
	}

	var conv *domain.Conversation
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The conditional update is the first statement so the write lock is
		// taken before anything is read inside the transaction.
		ok, err := repo.TransitionRequest(ctx, tx, r.ID, domain.StatusPending, domain.StatusAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		c, err := s.conversations().getOrCreate(ctx, tx, r.FromUserID, r.ToUserID)
		if err != nil {
			return err
		}
		conv = c
		return nil
	})
	if err != nil {
		return nil, storageErr("request.accept", err)
	}
	span.SetAttributes(attribute.String("conversation.id", conv.ID))
	return &ActionResult{Status: domain.StatusAccepted, ConversationID: conv.ID}, nil
}

func (s *RequestService) cancel(ctx context.Context, r *domain.ConnectionRequest, actor uint64) (*ActionResult, error) {
	if r.FromUserID != actor {
		return nil, ErrNotAuthorized
	}
	if r.Status != domain.StatusPending {
		return nil, ErrAlreadyProcessed
	}
	ok, err := repo.DeletePendingRequest(ctx, s.DB, r.ID)
	if err != nil {
		return nil, storageErr("request.cancel", err)
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}
	return &ActionResult{Status: StatusCancelled}, nil
}

func (s *RequestService) conversations() *ConversationService {
	if s.Conversations == nil {
		s.Conversations = NewConversationService(s.DB)
	}
	return s.Conversations
}

// ListIncoming returns requests addressed to userID, newest first.
func (s *RequestService) ListIncoming(ctx context.Context, userID uint64) ([]domain.ConnectionRequest, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "ListIncoming",
		trace.WithAttributes(attribute.String("user.id", strconv.FormatUint(userID, 10))),
	)
	defer span.End()

	out, err := repo.ListIncoming(ctx, s.DB, userID)
	return out, storageErr("request.list_incoming", err)
}

// ListOutgoing returns requests sent by userID, newest first.
func (s *RequestService) ListOutgoing(ctx context.Context, userID uint64) ([]domain.ConnectionRequest, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "ListOutgoing",
		trace.WithAttributes(attribute.String("user.id", strconv.FormatUint(userID, 10))),
	)
	defer span.End()

	out, err := repo.ListOutgoing(ctx, s.DB, userID)
	return out, storageErr("request.list_outgoing", err)
}

// ListConnections returns userID's accepted requests annotated with the other
// party, the caller's role, and the conversation ID when one exists.
func (s *RequestService) ListConnections(ctx context.Context, userID uint64) ([]Connection, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "ListConnections",
		trace.WithAttributes(attribute.String("user.id", strconv.FormatUint(userID, 10))),
	)
	defer span.End()

	reqs, err := repo.ListAccepted(ctx, s.DB, userID)
	if err != nil {
		return nil, storageErr("request.list_connections", err)
	}
	convs, err := repo.ListConversationsFor(ctx, s.DB, userID)
	if err != nil {
		return nil, storageErr("request.list_connections", err)
	}
	byPair := make(map[[2]uint64]string, len(convs))
	for _, c := range convs {
		byPair[[2]uint64{c.UserAID, c.UserBID}] = c.ID
	}

	out := make([]Connection, 0, len(reqs))
	for _, r := range reqs {
		conn := Connection{RequestID: r.ID, CreatedAt: r.CreatedAt}
		other := r.ToUser
		conn.Role = RoleLearner
		if r.ToUserID == userID {
			other = r.FromUser
			conn.Role = RoleTeacher
		}
		conn.OtherUserID = other.ID
		conn.OtherUsername = other.Username
		conn.OtherEmail = other.Email

		a, b := canonicalPair(r.FromUserID, r.ToUserID)
		conn.ConversationID = byPair[[2]uint64{a, b}]
		out = append(out, conn)
	}
	return out, nil
}
