package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/services"
)

// ChatStore persists chat lines. Implemented by services.MessageService.
type ChatStore interface {
	Save(ctx context.Context, roomID, senderName, text string) (*domain.ChatMessage, error)
}

// Options tune sessions and logging.
type Options struct {
	ReadLimit    int64         // max inbound frame size in bytes
	PingInterval time.Duration // keepalive ping period; pong wait is derived
	SendBuffer   int           // per-session outbound queue length
	SaveTimeout  time.Duration // per-message persistence deadline
	Logger       zerolog.Logger
}

func (o *Options) defaults() {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.SaveTimeout <= 0 {
		o.SaveTimeout = 5 * time.Second
	}
}

// ErrClosed is returned by Join after Close.
var ErrClosed = errors.New("realtime: hub closed")

type op uint8

const (
	opJoin op = iota
	opLeave
	opFrame
)

type event struct {
	op   op
	s    *Session
	data []byte
}

type room struct {
	kind  Kind
	id    string
	inbox chan event
	refs  int // guarded by Hub.mu
}

// Hub owns the room table. The zero value is not usable; call NewHub.
type Hub struct {
	store ChatStore
	opts  Options

	mu       sync.Mutex
	rooms    map[string]*room
	sessions map[*Session]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewHub builds a hub. store may be nil, in which case chat rooms relay
// without persisting.
func NewHub(store ChatStore, opts Options) *Hub {
	opts.defaults()
	return &Hub{
		store:    store,
		opts:     opts,
		rooms:    make(map[string]*room),
		sessions: make(map[*Session]struct{}),
	}
}

func roomKey(kind Kind, id string) string { return string(kind) + "/" + id }

// Join adds s to the room and starts the room goroutine if needed.
func (h *Hub) Join(s *Session, kind Kind, roomID string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	key := roomKey(kind, roomID)
	r := h.rooms[key]
	if r == nil {
		r = &room{kind: kind, id: roomID, inbox: make(chan event, 64)}
		h.rooms[key] = r
		h.wg.Add(1)
		go h.run(r)
	}
	r.refs++
	h.sessions[s] = struct{}{}
	s.room = r
	h.mu.Unlock()

	r.inbox <- event{op: opJoin, s: s}
	sessionsActive.WithLabelValues(string(kind)).Inc()
	h.opts.Logger.Debug().Str("room", key).Uint64("user_id", s.UserID).Msg("session joined")
	return nil
}

// Leave removes s from its room. The room is dropped with its last member.
// Calling Leave more than once is a no-op.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	r := s.room
	if r == nil {
		h.mu.Unlock()
		return
	}
	s.room = nil
	delete(h.sessions, s)
	h.mu.Unlock()

	r.inbox <- event{op: opLeave, s: s}

	h.mu.Lock()
	r.refs--
	if r.refs == 0 {
		delete(h.rooms, roomKey(r.kind, r.id))
		close(r.inbox)
	}
	h.mu.Unlock()

	sessionsActive.WithLabelValues(string(r.kind)).Dec()
	h.opts.Logger.Debug().Str("room", roomKey(r.kind, r.id)).Uint64("user_id", s.UserID).Msg("session left")
}

// Dispatch hands an inbound frame from s to its room. Frames from sessions
// that are not joined are dropped. Dispatch and Leave for one session must
// be called from the same goroutine.
func (h *Hub) Dispatch(s *Session, data []byte) {
	h.mu.Lock()
	r := s.room
	h.mu.Unlock()
	if r == nil {
		return
	}
	r.inbox <- event{op: opFrame, s: s, data: data}
}

// Rooms returns the number of live rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close refuses new joins, disconnects every session, and waits for room
// goroutines to drain or ctx to expire.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	live := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		live = append(live, s)
	}
	h.mu.Unlock()

	for _, s := range live {
		s.disconnect()
	}

	done := make(chan struct{})
	go func() { h.wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the single writer for a room. It exits when the inbox is closed.
func (h *Hub) run(r *room) {
	defer h.wg.Done()
	members := make(map[*Session]struct{})
	log := h.opts.Logger.With().Str("room", roomKey(r.kind, r.id)).Logger()

	deliver := func(s *Session, b []byte) {
		select {
		case s.send <- b:
		default:
			// slow consumer
			delete(members, s)
			close(s.send)
			framesTotal.WithLabelValues(string(r.kind), outcomeEvicted).Inc()
			log.Warn().Uint64("user_id", s.UserID).Msg("send buffer full, session evicted")
		}
	}

	for ev := range r.inbox {
		switch ev.op {
		case opJoin:
			members[ev.s] = struct{}{}
			deliver(ev.s, greeting(r.kind, r.id))

		case opLeave:
			if _, ok := members[ev.s]; ok {
				delete(members, ev.s)
				close(ev.s.send)
			}

		case opFrame:
			if _, ok := members[ev.s]; !ok {
				continue
			}
			switch r.kind {
			case KindChat:
				out, outcome := h.chat(r.id, ev.data, log)
				framesTotal.WithLabelValues(string(r.kind), outcome).Inc()
				if out == nil {
					continue
				}
				for m := range members {
					deliver(m, out)
				}
			case KindSignal:
				if !validSignal(ev.data) {
					framesTotal.WithLabelValues(string(r.kind), outcomeMalformed).Inc()
					log.Warn().Uint64("user_id", ev.s.UserID).Msg("malformed signaling frame dropped")
					continue
				}
				framesTotal.WithLabelValues(string(r.kind), outcomeRelayed).Inc()
				for m := range members {
					if m != ev.s {
						deliver(m, ev.data)
					}
				}
			}
		}
	}

	// Inbox closed: only reachable after every member has left.
	for m := range members {
		close(m.send)
	}
}

// chat persists an inbound chat frame and returns the broadcast payload, or
// nil when the frame is dropped.
func (h *Hub) chat(roomID string, raw []byte, log zerolog.Logger) ([]byte, string) {
	in, ok, err := decodeChat(raw)
	if err != nil {
		log.Warn().Err(err).Msg("malformed chat frame dropped")
		return nil, outcomeMalformed
	}
	if !ok {
		return nil, outcomeEmpty
	}

	sender := in.SenderName
	if sender == "" {
		sender = "Unknown"
	}
	out := chatOut{Message: in.Message, SenderName: sender, CreatedAt: time.Now().UTC()}
	if h.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.SaveTimeout)
		m, err := h.store.Save(ctx, roomID, in.SenderName, in.Message)
		cancel()
		if err != nil {
			// Only store failures are server faults; the rest is client input.
			if errors.Is(err, services.ErrStorageUnavailable) {
				log.Error().Err(err).Msg("chat message not persisted; dropped")
			} else {
				log.Warn().Err(err).Msg("chat message rejected; dropped")
			}
			return nil, outcomeRejected
		}
		out = chatOut{Message: m.Text, SenderName: m.SenderName, CreatedAt: m.CreatedAt}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, outcomeMalformed
	}
	return b, outcomeRelayed
}
