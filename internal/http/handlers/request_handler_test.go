package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/services"
)

func createRequest(t *testing.T, e *testEnv, from, to uint64) RequestView {
	t.Helper()
	w := e.do(t, from, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: to, Message: "  teach me  "}, nil)
	wantStatus(t, w, http.StatusCreated)
	return decode[RequestView](t, w)
}

func TestCreateRequest_HappyPathAndListings(t *testing.T) {
	e := newTestEnv(t)

	rv := createRequest(t, e, 1, 2)
	if rv.Status != domain.StatusPending || rv.FromUsername != "alice" || rv.ToUsername != "bob" || rv.Message != "teach me" {
		t.Fatalf("unexpected view: %+v", rv)
	}

	w := e.do(t, 2, http.MethodGet, "/api/requests/incoming", nil, nil)
	wantStatus(t, w, http.StatusOK)
	in := decode[RequestsResponse](t, w)
	if len(in.Requests) != 1 || in.Requests[0].ID != rv.ID || in.Requests[0].FromUsername != "alice" {
		t.Fatalf("incoming=%+v", in.Requests)
	}

	w = e.do(t, 1, http.MethodGet, "/api/requests/outgoing", nil, nil)
	out := decode[RequestsResponse](t, w)
	if len(out.Requests) != 1 || out.Requests[0].ID != rv.ID {
		t.Fatalf("outgoing=%+v", out.Requests)
	}

	// empty listings are arrays
	w = e.do(t, 3, http.MethodGet, "/api/requests/incoming", nil, nil)
	if w.Body.String() != `{"requests":[]}` {
		t.Fatalf("body=%s", w.Body.String())
	}

	wantStatus(t, e.do(t, 2, http.MethodGet, "/api/requests/"+rv.ID, nil, nil), http.StatusOK)
	wantError(t, e.do(t, 3, http.MethodGet, "/api/requests/"+rv.ID, nil, nil), http.StatusForbidden, ErrCodeForbidden)
	wantError(t, e.do(t, 1, http.MethodGet, "/api/requests/"+uuid.NewString(), nil, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, e.do(t, 1, http.MethodGet, "/api/requests/not-a-uuid", nil, nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestCreateRequest_Errors(t *testing.T) {
	e := newTestEnv(t)
	createRequest(t, e, 1, 2)

	wantError(t, e.do(t, 1, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 2}, nil), http.StatusConflict, ErrCodeDuplicateActive)
	wantError(t, e.do(t, 1, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 1}, nil), http.StatusBadRequest, ErrCodeInvalidTarget)
	wantError(t, e.do(t, 1, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 999}, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, e.do(t, 1, http.MethodPost, "/api/requests", `{}`, nil), http.StatusBadRequest, ErrCodeBadRequest)

	// reverse direction is a different ordered pair
	createRequest(t, e, 2, 1)
}

func TestCreateRequest_IdempotentReplay(t *testing.T) {
	e := newTestEnv(t)
	hdr := map[string]string{"Idempotency-Key": "create-1"}

	w1 := e.do(t, 1, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 2}, hdr)
	wantStatus(t, w1, http.StatusCreated)
	first := decode[RequestView](t, w1)
	if w1.Header().Get("Idempotency-Replayed") != "" {
		t.Fatal("first call must not be a replay")
	}

	w2 := e.do(t, 1, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 2}, hdr)
	wantStatus(t, w2, http.StatusCreated)
	if w2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("expected replay header")
	}
	if got := decode[RequestView](t, w2); got.ID != first.ID {
		t.Fatalf("replay returned %s, want %s", got.ID, first.ID)
	}

	// same key from another user is independent
	w3 := e.do(t, 3, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 2}, hdr)
	wantStatus(t, w3, http.StatusCreated)
	if w3.Header().Get("Idempotency-Replayed") != "" {
		t.Fatal("keys are scoped per user")
	}

	// without a key the duplicate rule applies
	wantError(t, e.do(t, 1, http.MethodPost, "/api/requests", CreateRequestRequest{ToUserID: 2}, nil), http.StatusConflict, ErrCodeDuplicateActive)
}

func TestActOnRequest_AcceptOpensConversation(t *testing.T) {
	e := newTestEnv(t)
	rv := createRequest(t, e, 1, 2)
	path := "/api/requests/" + rv.ID + "/action"

	// only the recipient may accept
	wantError(t, e.do(t, 1, http.MethodPost, path, ActionRequest{Action: "accept"}, nil), http.StatusForbidden, ErrCodeForbidden)
	wantError(t, e.do(t, 2, http.MethodPost, path, ActionRequest{Action: "approve"}, nil), http.StatusBadRequest, ErrCodeInvalidAction)
	wantError(t, e.do(t, 2, http.MethodPost, path, `{}`, nil), http.StatusBadRequest, ErrCodeBadRequest)

	w := e.do(t, 2, http.MethodPost, path, ActionRequest{Action: "accept"}, nil)
	wantStatus(t, w, http.StatusOK)
	res := decode[services.ActionResult](t, w)
	if res.Status != domain.StatusAccepted || res.ConversationID == "" {
		t.Fatalf("result=%+v", res)
	}

	wantError(t, e.do(t, 2, http.MethodPost, path, ActionRequest{Action: "reject"}, nil), http.StatusConflict, ErrCodeAlreadyProcessed)
	wantError(t, e.do(t, 1, http.MethodPost, path, ActionRequest{Action: "cancel"}, nil), http.StatusConflict, ErrCodeAlreadyProcessed)

	// conversation is visible to participants only
	w = e.do(t, 1, http.MethodGet, "/api/conversations/"+res.ConversationID, nil, nil)
	wantStatus(t, w, http.StatusOK)
	conv := decode[domain.Conversation](t, w)
	if conv.UserAID != 1 || conv.UserBID != 2 {
		t.Fatalf("conversation=%+v", conv)
	}
	wantError(t, e.do(t, 3, http.MethodGet, "/api/conversations/"+res.ConversationID, nil, nil), http.StatusForbidden, ErrCodeForbidden)
	wantError(t, e.do(t, 1, http.MethodGet, "/api/conversations/"+uuid.NewString(), nil, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, e.do(t, 1, http.MethodGet, "/api/conversations/x", nil, nil), http.StatusBadRequest, ErrCodeBadRequest)

	// both sides see the connection with their own role
	for _, tc := range []struct {
		user  uint64
		other uint64
		role  string
	}{{1, 2, services.RoleLearner}, {2, 1, services.RoleTeacher}} {
		w = e.do(t, tc.user, http.MethodGet, "/api/connections", nil, nil)
		wantStatus(t, w, http.StatusOK)
		cs := decode[ConnectionsResponse](t, w).Connections
		if len(cs) != 1 || cs[0].OtherUserID != tc.other || cs[0].Role != tc.role || cs[0].ConversationID != res.ConversationID {
			t.Fatalf("user %d connections=%+v", tc.user, cs)
		}
	}
	w = e.do(t, 3, http.MethodGet, "/api/connections", nil, nil)
	if w.Body.String() != `{"connections":[]}` {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestActOnRequest_RejectAndCancel(t *testing.T) {
	e := newTestEnv(t)

	rv := createRequest(t, e, 1, 2)
	w := e.do(t, 2, http.MethodPost, "/api/requests/"+rv.ID+"/action", ActionRequest{Action: "reject"}, nil)
	wantStatus(t, w, http.StatusOK)
	if res := decode[services.ActionResult](t, w); res.Status != domain.StatusRejected || res.ConversationID != "" {
		t.Fatalf("reject result=%+v", res)
	}

	// a rejected pair may ask again
	rv2 := createRequest(t, e, 1, 2)
	wantError(t, e.do(t, 2, http.MethodPost, "/api/requests/"+rv2.ID+"/action", ActionRequest{Action: "cancel"}, nil), http.StatusForbidden, ErrCodeForbidden)
	w = e.do(t, 1, http.MethodPost, "/api/requests/"+rv2.ID+"/action", ActionRequest{Action: "CANCEL"}, nil)
	wantStatus(t, w, http.StatusOK)
	if res := decode[services.ActionResult](t, w); res.Status != services.StatusCancelled {
		t.Fatalf("cancel result=%+v", res)
	}
	wantError(t, e.do(t, 1, http.MethodGet, "/api/requests/"+rv2.ID, nil, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, e.do(t, 1, http.MethodPost, "/api/requests/"+uuid.NewString()+"/action", ActionRequest{Action: "cancel"}, nil), http.StatusNotFound, ErrCodeNotFound)
}
