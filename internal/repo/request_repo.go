// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConnectionRequest model.
//
// State changes are conditional writes: a transition only applies while the
// row is still in the expected status, and callers learn whether they won by
// the returned flag. The one-active-request-per-pair rule lives in the
// ux_requests_active unique index; CreateRequest reports a violation as
// ErrDuplicate.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// CreateRequest inserts a pending request from -> to.
func CreateRequest(ctx context.Context, db *gorm.DB, from, to uint64, message string) (*domain.ConnectionRequest, error) {
	key := domain.ActivePairKey(from, to)
	now := time.Now().UTC()
	r := &domain.ConnectionRequest{
		ID:         uuid.NewString(),
		FromUserID: from,
		ToUserID:   to,
		Message:    message,
		Status:     domain.StatusPending,
		ActiveKey:  &key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return r, nil
}

// GetRequest fetches a request with both parties preloaded, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ConnectionRequest, error) {
	var r domain.ConnectionRequest
	err := db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// TransitionRequest moves a request from one status to another only if it is
// still in the expected status. It reports whether this call applied the
// change. Leaving the active set (rejected) clears the pair key so a new
// request for the same pair can be created.
func TransitionRequest(ctx context.Context, db *gorm.DB, id, fromStatus, toStatus string) (bool, error) {
	updates := map[string]any{
		"status":     toStatus,
		"updated_at": time.Now().UTC(),
	}
	if toStatus == domain.StatusRejected {
		updates["active_key"] = gorm.Expr("NULL")
	}
	res := db.WithContext(ctx).
		Model(&domain.ConnectionRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeletePendingRequest removes a request only while it is pending and reports
// whether a row was deleted.
func DeletePendingRequest(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Delete(&domain.ConnectionRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListIncoming returns requests addressed to userID, newest first.
func ListIncoming(ctx context.Context, db *gorm.DB, userID uint64) ([]domain.ConnectionRequest, error) {
	return listRequests(ctx, db, "to_user_id = ?", userID)
}

// ListOutgoing returns requests sent by userID, newest first.
func ListOutgoing(ctx context.Context, db *gorm.DB, userID uint64) ([]domain.ConnectionRequest, error) {
	return listRequests(ctx, db, "from_user_id = ?", userID)
}

// ListAccepted returns accepted requests where userID is either party,
// newest first.
func ListAccepted(ctx context.Context, db *gorm.DB, userID uint64) ([]domain.ConnectionRequest, error) {
	var out []domain.ConnectionRequest
	err := db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("status = ? AND (from_user_id = ? OR to_user_id = ?)", domain.StatusAccepted, userID, userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func listRequests(ctx context.Context, db *gorm.DB, where string, userID uint64) ([]domain.ConnectionRequest, error) {
	var out []domain.ConnectionRequest
	err := db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where(where, userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
