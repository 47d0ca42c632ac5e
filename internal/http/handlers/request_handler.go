// Connection request and conversation HTTP handlers.
//
// This file exposes:
//   - POST /requests                 (create, Idempotency-Key supported)
//   - GET  /requests/incoming        (pending and past requests addressed to the caller)
//   - GET  /requests/outgoing        (requests the caller sent)
//   - GET  /requests/{id}            (visible to either party)
//   - POST /requests/{id}/action     (accept, reject, cancel)
//   - GET  /connections              (accepted requests in either direction)
//   - GET  /conversations/{id}       (participants only)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a prior create exists
// for (user, scope, key), the handler returns that request with its original
// status and sets `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/http/middleware"
	"github.com/tbourn/skillswap-backend/internal/services"
)

//
// DTOs
//

// CreateRequestRequest is the JSON payload for sending a connection request.
type CreateRequestRequest struct {
	ToUserID uint64 `json:"to_user_id" binding:"required" example:"42"`
	Message  string `json:"message" example:"Could you help me get started with Django?"`
}

// ActionRequest carries the transition to apply.
type ActionRequest struct {
	Action string `json:"action" binding:"required" example:"accept"`
}

// RequestView is a connection request with both parties' names.
type RequestView struct {
	ID           string    `json:"id"`
	FromUserID   uint64    `json:"from_user_id"`
	FromUsername string    `json:"from_username"`
	ToUserID     uint64    `json:"to_user_id"`
	ToUsername   string    `json:"to_username"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RequestsResponse wraps a request listing.
type RequestsResponse struct {
	Requests []RequestView `json:"requests"`
}

// ConnectionsResponse wraps the caller's connections.
type ConnectionsResponse struct {
	Connections []services.Connection `json:"connections"`
}

func toRequestView(r domain.ConnectionRequest) RequestView {
	return RequestView{
		ID:           r.ID,
		FromUserID:   r.FromUserID,
		FromUsername: r.FromUser.Username,
		ToUserID:     r.ToUserID,
		ToUsername:   r.ToUser.Username,
		Message:      r.Message,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toRequestViews(rs []domain.ConnectionRequest) []RequestView {
	out := make([]RequestView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequestView(r))
	}
	return out
}

//
// Handlers
//

// CreateRequest godoc
// @ID          createRequest
// @Summary     Send a connection request
// @Description Creates a pending request from the caller to to_user_id. At most one pending or
// @Description accepted request may exist per ordered pair. Supports Idempotency-Key.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateRequestRequest  true  "Target user and note"
// @Success     201  {object}  handlers.RequestView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or self-request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     409  {object}  handlers.ErrorResponse  "Active request exists"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	ctx := c.Request.Context()
	uid, found := currentUser(c)
	if !found {
		return
	}

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to_user_id required")
		return
	}

	userKey := strconv.FormatUint(uid, 10)
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.idem != nil {
		if rec, err := h.idem.Lookup(ctx, userKey, services.ScopeCreateRequest, idemKey); err == nil && rec != nil {
			if prev, err := h.reqSvc.Get(ctx, rec.ResourceID, uid); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, toRequestView(*prev))
				return
			}
		}
	}

	r, err := h.reqSvc.Create(ctx, uid, req.ToUserID, req.Message)
	if err != nil {
		failService(c, err)
		return
	}

	// best effort; a lost record only costs the replay
	if idemKey != "" && h.idem != nil {
		if err := h.idem.Record(ctx, userKey, services.ScopeCreateRequest, idemKey, r.ID, http.StatusCreated); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Msg("idempotency record failed")
		}
	}

	ok(c, http.StatusCreated, toRequestView(*r))
}

// IncomingRequests godoc
// @ID          listIncomingRequests
// @Summary     List requests addressed to the caller
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.RequestsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /requests/incoming [get]
func (h *Handlers) IncomingRequests(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	rs, err := h.reqSvc.ListIncoming(c.Request.Context(), uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RequestsResponse{Requests: toRequestViews(rs)})
}

// OutgoingRequests godoc
// @ID          listOutgoingRequests
// @Summary     List requests the caller sent
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.RequestsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /requests/outgoing [get]
func (h *Handlers) OutgoingRequests(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	rs, err := h.reqSvc.ListOutgoing(c.Request.Context(), uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RequestsResponse{Requests: toRequestViews(rs)})
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Get a connection request
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Request ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.RequestView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a party"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}
	r, err := h.reqSvc.Get(c.Request.Context(), id, uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, toRequestView(*r))
}

// ActOnRequest godoc
// @ID          actOnRequest
// @Summary     Accept, reject, or cancel a request
// @Description accept and reject are allowed for the recipient, cancel for the sender. Only
// @Description pending requests can transition. Accepting returns the pair's conversation id.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                  true  "Request ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ActionRequest  true  "accept | reject | cancel"
// @Success     200  {object}  services.ActionResult
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid action"
// @Failure     403  {object}  handlers.ErrorResponse  "Not allowed for this party"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already processed"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /requests/{id}/action [post]
func (h *Handlers) ActOnRequest(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action required")
		return
	}
	res, err := h.reqSvc.Act(c.Request.Context(), id, uid, req.Action)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Connections godoc
// @ID          listConnections
// @Summary     List the caller's connections
// @Description Accepted requests in either direction, with the other party and conversation id.
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ConnectionsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /connections [get]
func (h *Handlers) Connections(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	cs, err := h.reqSvc.ListConnections(c.Request.Context(), uid)
	if err != nil {
		failService(c, err)
		return
	}
	if cs == nil {
		cs = []services.Connection{}
	}
	ok(c, http.StatusOK, ConnectionsResponse{Connections: cs})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Get a conversation
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.Conversation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	conv, err := h.convSvc.Get(c.Request.Context(), id, uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, conv)
}
