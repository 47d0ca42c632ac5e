package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tbourn/skillswap-backend/internal/repo"
)

func seedMessages(t *testing.T, e *testEnv, room string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := repo.CreateMessage(context.Background(), e.db, room, "ann", "m"+string(rune('a'+i))); err != nil {
			t.Fatalf("seed message: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestListMessages_PaginationAndOrder(t *testing.T) {
	e := newTestEnv(t)
	seedMessages(t, e, "room-1", 5)
	seedMessages(t, e, "room-2", 1)

	w := e.do(t, 1, http.MethodGet, "/api/chat/room-1/messages?page=2&page_size=2", nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp := decode[ListMessagesResponse](t, w)
	if len(resp.Messages) != 2 || resp.Messages[0].Text != "mc" || resp.Messages[1].Text != "md" {
		t.Fatalf("page 2: %+v", resp.Messages)
	}
	if p := resp.Pagination; p.Total != 5 || p.TotalPages != 3 || !p.HasNext || p.Page != 2 || p.PageSize != 2 {
		t.Fatalf("pagination=%+v", p)
	}

	w = e.do(t, 1, http.MethodGet, "/api/chat/empty-room/messages", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if resp := decode[ListMessagesResponse](t, w); resp.Messages == nil || len(resp.Messages) != 0 || resp.Pagination.Total != 0 {
		t.Fatalf("empty room: %+v", resp)
	}

	wantError(t, e.do(t, 1, http.MethodGet, "/api/chat/"+strings.Repeat("x", 129)+"/messages", nil, nil), http.StatusBadRequest, ErrCodeBadRequest)
	wantError(t, e.do(t, 1, http.MethodGet, "/api/chat/a%20b/messages", nil, nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestListMessages_ETag(t *testing.T) {
	e := newTestEnv(t)
	seedMessages(t, e, "r", 2)

	w := e.do(t, 1, http.MethodGet, "/api/chat/r/messages", nil, nil)
	wantStatus(t, w, http.StatusOK)
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"messages:r:2:`) {
		t.Fatalf("etag=%q", etag)
	}

	if cc := w.Header().Get("Cache-Control"); cc != "private, no-cache" {
		t.Fatalf("Cache-Control=%q", cc)
	}

	w = e.do(t, 1, http.MethodGet, "/api/chat/r/messages", nil, map[string]string{"If-None-Match": etag})
	wantStatus(t, w, http.StatusNotModified)

	// another page of the same history is a different representation
	w = e.do(t, 1, http.MethodGet, "/api/chat/r/messages?page=2&page_size=1", nil, map[string]string{"If-None-Match": etag})
	wantStatus(t, w, http.StatusOK)

	seedMessages(t, e, "r", 1)
	w = e.do(t, 1, http.MethodGet, "/api/chat/r/messages", nil, map[string]string{"If-None-Match": etag})
	wantStatus(t, w, http.StatusOK)
	if w.Header().Get("ETag") == etag {
		t.Fatal("etag must change when history grows")
	}
}

func TestSocket_RequiresUpgrade(t *testing.T) {
	e := newTestEnv(t)
	wantError(t, e.do(t, 1, http.MethodGet, "/api/ws/chat/lobby", nil, nil), http.StatusBadRequest, ErrCodeBadRequest)
	wantStatus(t, e.do(t, 0, http.MethodGet, "/api/ws/video/lobby", nil, nil), http.StatusUnauthorized)
}

func dialAs(t *testing.T, srv *httptest.Server, path string, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"X-User-ID": []string{user}})
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", path, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m map[string]any
	if err := c.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestChatSocket_PersistsAndServesHistory(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.r)
	defer srv.Close()

	a := dialAs(t, srv, "/api/ws/chat/study-1", "1")
	if g := readFrame(t, a); g["system"] != true || g["message"] != "Connected to room study-1" {
		t.Fatalf("greeting=%v", g)
	}
	b := dialAs(t, srv, "/api/ws/chat/study-1", "2")
	readFrame(t, b)

	if err := a.WriteJSON(map[string]string{"message": " hello ", "senderName": "alice"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, c := range []*websocket.Conn{a, b} {
		if got := readFrame(t, c); got["message"] != "hello" || got["senderName"] != "alice" || got["createdAt"] == nil {
			t.Fatalf("chat frame=%v", got)
		}
	}

	// broadcast happens after the store accepted the message
	w := e.do(t, 3, http.MethodGet, "/api/chat/study-1/messages", nil, nil)
	wantStatus(t, w, http.StatusOK)
	resp := decode[ListMessagesResponse](t, w)
	if len(resp.Messages) != 1 || resp.Messages[0].Text != "hello" || resp.Messages[0].SenderName != "alice" {
		t.Fatalf("history=%+v", resp.Messages)
	}
}

func TestVideoSocket_RelaysToOthers(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.r)
	defer srv.Close()

	a := dialAs(t, srv, "/api/ws/video/call-9", "1")
	if g := readFrame(t, a); g["type"] != "system" || g["message"] != "Connected to video room call-9" {
		t.Fatalf("greeting=%v", g)
	}
	b := dialAs(t, srv, "/api/ws/video/call-9", "2")
	readFrame(t, b)

	offer := map[string]any{"type": "offer", "sdp": "v=0"}
	if err := a.WriteJSON(offer); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readFrame(t, b); got["type"] != "offer" || got["sdp"] != "v=0" {
		t.Fatalf("relayed=%v", got)
	}

	// the sender gets nothing back
	_ = a.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := a.ReadMessage(); err == nil {
		t.Fatal("signal frame echoed to sender")
	}
}
