// Package realtime relays chat and call-signaling frames between websocket
// sessions that share a named room.
//
// Each room is served by one goroutine that owns its member set, so
// persistence and fan-out for a room happen in arrival order without locks.
// Chat rooms persist every non-empty message before broadcasting it to all
// members, the sender included. Signaling rooms forward frames unchanged to
// every other member and store nothing.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind namespaces rooms: a chat room and a signaling room may share an ID.
type Kind string

const (
	KindChat   Kind = "chat"
	KindSignal Kind = "video"
)

// Valid reports whether k is a known room kind.
func (k Kind) Valid() bool { return k == KindChat || k == KindSignal }

// chatIn is the inbound chat frame.
type chatIn struct {
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
}

// chatOut is the broadcast chat frame.
type chatOut struct {
	System     bool      `json:"system"`
	Message    string    `json:"message"`
	SenderName string    `json:"senderName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// chatSystem is a server notice in a chat room.
type chatSystem struct {
	System  bool   `json:"system"`
	Message string `json:"message"`
}

// signalGreeting is sent to a session joining a signaling room.
type signalGreeting struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func greeting(kind Kind, roomID string) []byte {
	var v any
	if kind == KindSignal {
		v = signalGreeting{Type: "system", Message: fmt.Sprintf("Connected to video room %s", roomID)}
	} else {
		v = chatSystem{System: true, Message: fmt.Sprintf("Connected to room %s", roomID)}
	}
	b, _ := json.Marshal(v)
	return b
}

// decodeChat parses an inbound chat frame and trims its message. ok is false
// for empty messages.
func decodeChat(raw []byte) (in chatIn, ok bool, err error) {
	if err = json.Unmarshal(raw, &in); err != nil {
		return in, false, err
	}
	in.Message = strings.TrimSpace(in.Message)
	return in, in.Message != "", nil
}

// validSignal accepts any JSON object. Signaling payloads are opaque.
func validSignal(raw []byte) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
