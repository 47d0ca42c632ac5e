// Chat history and realtime HTTP handlers.
//
// This file exposes:
//   - GET /chat/{room_id}/messages   (paginated history, oldest first, weak ETag)
//   - GET /ws/chat/{room_id}         (websocket chat session)
//   - GET /ws/video/{room_id}        (websocket call-signaling session)
//
// Room ids are opaque tokens chosen by clients; the chat and video namespaces
// are separate, so "abc" in one never reaches "abc" in the other.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/http/middleware"
	"github.com/tbourn/skillswap-backend/internal/realtime"
)

// roomIDRE bounds room ids to URL-safe tokens that fit the message table.
var roomIDRE = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// ListMessagesResponse contains a page of chat messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.ChatMessage `json:"messages"`
	Pagination Pagination           `json:"pagination"`
}

func roomParam(c *gin.Context) (string, bool) {
	id := c.Param("room_id")
	if !roomIDRE.MatchString(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "room_id must be 1-128 characters of [A-Za-z0-9._:-]")
		return "", false
	}
	return id, true
}

// ListMessages godoc
// @ID          listRoomMessages
// @Summary     List chat history for a room
// @Description Returns persisted chat messages in ascending creation order. Responds 304 when
// @Description If-None-Match matches the room's current ETag.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       room_id    path   string  true   "Room ID"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(200) default(50)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /chat/{room_id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	if _, found := currentUser(c); !found {
		return
	}
	roomID, valid := roomParam(c)
	if !valid {
		return
	}

	page, pageSize := clampPagination(c)

	// Best effort: a stats failure only skips revalidation.
	if hv, versioned := h.msgSvc.(historyVersioner); versioned {
		if st, err := hv.Stats(ctx, roomID); err == nil {
			var ts int64
			if st.Count > 0 {
				ts = st.Latest.UnixNano()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d:%d:%d"`, roomID, st.Count, ts, page, pageSize)
			c.Header("ETag", etag)
			c.Header("Cache-Control", "private, no-cache")
			if c.GetHeader("If-None-Match") == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.msgSvc.ListPage(ctx, roomID, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.ChatMessage{}
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// ChatSocket godoc
// @ID          chatSocket
// @Summary     Join a chat room over websocket
// @Description Inbound frames are {"message","senderName"}; every member, the sender included,
// @Description receives {"message","senderName","createdAt"} once the message is stored.
// @Tags        Realtime
// @Security    BearerAuth
// @Param       room_id  path   string  true   "Room ID"
// @Param       token    query  string  false  "Bearer token (browsers cannot set headers on upgrade)"
// @Success     101  "Switching Protocols"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /ws/chat/{room_id} [get]
func (h *Handlers) ChatSocket(c *gin.Context) { h.serveRoom(c, realtime.KindChat) }

// VideoSocket godoc
// @ID          videoSocket
// @Summary     Join a call-signaling room over websocket
// @Description Any JSON object frame (offer, answer, ice-candidate, ...) is relayed unchanged
// @Description to the other members of the room.
// @Tags        Realtime
// @Security    BearerAuth
// @Param       room_id  path   string  true   "Room ID"
// @Param       token    query  string  false  "Bearer token (browsers cannot set headers on upgrade)"
// @Success     101  "Switching Protocols"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /ws/video/{room_id} [get]
func (h *Handlers) VideoSocket(c *gin.Context) { h.serveRoom(c, realtime.KindSignal) }

func (h *Handlers) serveRoom(c *gin.Context, kind realtime.Kind) {
	uid, found := currentUser(c)
	if !found {
		return
	}
	roomID, valid := roomParam(c)
	if !valid {
		return
	}
	if !c.IsWebsocket() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "websocket upgrade required")
		return
	}
	if h.relay == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "realtime relay disabled")
		return
	}

	lg := middleware.LoggerFrom(c)
	// Serve blocks until the session ends; the upgrader has already written
	// the handshake response when it returns an upgrade error.
	if err := h.relay.Serve(c.Writer, c.Request, h.up, kind, roomID, uid); err != nil {
		lg.Debug().Err(err).Str("room", roomID).Str("kind", string(kind)).Msg("websocket session refused")
	}
	c.Abort()
}
