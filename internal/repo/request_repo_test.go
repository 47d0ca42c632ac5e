package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

func TestCreateRequest_DuplicateActivePair(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1, 2)
	ctx := context.Background()

	r, err := CreateRequest(ctx, db, 1, 2, "hi")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if r.Status != domain.StatusPending || r.ActiveKey == nil || *r.ActiveKey != "1:2" {
		t.Fatalf("unexpected request: %+v", r)
	}
	if _, err := CreateRequest(ctx, db, 1, 2, "again"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// reverse direction is independent
	if _, err := CreateRequest(ctx, db, 2, 1, ""); err != nil {
		t.Fatalf("reverse CreateRequest: %v", err)
	}
}

func TestCreateRequest_UnknownUserViolatesFK(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1)
	if _, err := CreateRequest(context.Background(), db, 1, 99, ""); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected FK error, got %v", err)
	}
}

func TestTransitionRequest_Conditional(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1, 2)
	ctx := context.Background()

	r, err := CreateRequest(ctx, db, 1, 2, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	ok, err := TransitionRequest(ctx, db, r.ID, domain.StatusPending, domain.StatusAccepted)
	if err != nil || !ok {
		t.Fatalf("first transition ok=%v err=%v", ok, err)
	}
	ok, err = TransitionRequest(ctx, db, r.ID, domain.StatusPending, domain.StatusRejected)
	if err != nil || ok {
		t.Fatalf("second transition must not apply: ok=%v err=%v", ok, err)
	}

	got, err := GetRequest(ctx, db, r.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != domain.StatusAccepted || got.ActiveKey == nil {
		t.Fatalf("accepted request should keep its active key: %+v", got)
	}
	if got.FromUser.Username != "user1" || got.ToUser.Username != "user2" {
		t.Fatalf("parties not preloaded: %+v / %+v", got.FromUser, got.ToUser)
	}
	// accepted still blocks a new request for the pair
	if _, err := CreateRequest(ctx, db, 1, 2, ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate while accepted, got %v", err)
	}
}

func TestTransitionRequest_RejectFreesPair(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1, 2)
	ctx := context.Background()

	r, _ := CreateRequest(ctx, db, 1, 2, "")
	if ok, err := TransitionRequest(ctx, db, r.ID, domain.StatusPending, domain.StatusRejected); err != nil || !ok {
		t.Fatalf("reject ok=%v err=%v", ok, err)
	}
	got, _ := GetRequest(ctx, db, r.ID)
	if got.Status != domain.StatusRejected || got.ActiveKey != nil {
		t.Fatalf("rejected request should clear active key: %+v", got)
	}
	if _, err := CreateRequest(ctx, db, 1, 2, "retry"); err != nil {
		t.Fatalf("new request after reject: %v", err)
	}
}

func TestDeletePendingRequest(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1, 2)
	ctx := context.Background()

	r, _ := CreateRequest(ctx, db, 1, 2, "")
	ok, err := DeletePendingRequest(ctx, db, r.ID)
	if err != nil || !ok {
		t.Fatalf("delete ok=%v err=%v", ok, err)
	}
	if _, err := GetRequest(ctx, db, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if ok, _ := DeletePendingRequest(ctx, db, r.ID); ok {
		t.Fatalf("second delete should not apply")
	}

	r2, _ := CreateRequest(ctx, db, 1, 2, "")
	_, _ = TransitionRequest(ctx, db, r2.ID, domain.StatusPending, domain.StatusAccepted)
	if ok, _ := DeletePendingRequest(ctx, db, r2.ID); ok {
		t.Fatalf("accepted request must not be deleted")
	}
}

func TestListRequests_NewestFirst(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1, 2, 3)
	ctx := context.Background()

	r1, _ := CreateRequest(ctx, db, 1, 3, "")
	r2, _ := CreateRequest(ctx, db, 2, 3, "")
	// make ordering explicit
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	db.Model(&domain.ConnectionRequest{}).Where("id = ?", r1.ID).Update("created_at", base)
	db.Model(&domain.ConnectionRequest{}).Where("id = ?", r2.ID).Update("created_at", base.Add(time.Hour))

	in, err := ListIncoming(ctx, db, 3)
	if err != nil || len(in) != 2 || in[0].ID != r2.ID || in[1].ID != r1.ID {
		t.Fatalf("ListIncoming=%+v err=%v", in, err)
	}
	out, err := ListOutgoing(ctx, db, 1)
	if err != nil || len(out) != 1 || out[0].ToUser.ID != 3 {
		t.Fatalf("ListOutgoing=%+v err=%v", out, err)
	}

	_, _ = TransitionRequest(ctx, db, r1.ID, domain.StatusPending, domain.StatusAccepted)
	acc, err := ListAccepted(ctx, db, 3)
	if err != nil || len(acc) != 1 || acc[0].ID != r1.ID {
		t.Fatalf("ListAccepted(3)=%+v err=%v", acc, err)
	}
	if acc, _ := ListAccepted(ctx, db, 1); len(acc) != 1 {
		t.Fatalf("ListAccepted(1) should see the same connection")
	}
	if acc, _ := ListAccepted(ctx, db, 2); len(acc) != 0 {
		t.Fatalf("ListAccepted(2) should be empty")
	}
}
