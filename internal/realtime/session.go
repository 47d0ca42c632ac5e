package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Session is one websocket connection joined to a single room.
type Session struct {
	UserID uint64

	conn *websocket.Conn
	send chan []byte
	room *room // guarded by Hub.mu
}

// NewSession builds a session with an outbound queue of size buf. conn may be
// nil for sessions driven directly through the Hub API.
func NewSession(userID uint64, conn *websocket.Conn, buf int) *Session {
	if buf <= 0 {
		buf = 64
	}
	return &Session{UserID: userID, conn: conn, send: make(chan []byte, buf)}
}

// Outbound exposes the session's delivery queue. It is closed when the
// session leaves or is evicted.
func (s *Session) Outbound() <-chan []byte { return s.send }

func (s *Session) disconnect() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// Upgrader builds the websocket upgrader. allowOrigin nil accepts any origin.
func Upgrader(allowOrigin func(origin string) bool) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowOrigin == nil {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		},
	}
}

// Serve upgrades the request, joins the room, and pumps frames until the
// connection ends. It blocks for the lifetime of the session.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, up *websocket.Upgrader, kind Kind, roomID string, userID uint64) error {
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s := NewSession(userID, conn, h.opts.SendBuffer)
	if err := h.Join(s, kind, roomID); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return err
	}
	go h.writePump(s)
	h.readPump(s)
	return nil
}

func (h *Hub) readPump(s *Session) {
	defer func() {
		h.Leave(s)
		_ = s.conn.Close()
	}()
	pongWait := h.opts.PingInterval * 10 / 9
	s.conn.SetReadLimit(h.opts.ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.opts.Logger.Debug().Err(err).Uint64("user_id", s.UserID).Msg("websocket read ended")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.Dispatch(s, data)
	}
}

func (h *Hub) writePump(s *Session) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
