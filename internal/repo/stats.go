package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

// RoomStats identifies a version of a room's history. Messages are
// append-only, so (Count, Latest) changes exactly when the history does.
type RoomStats struct {
	Count  int64
	Latest time.Time // zero for an empty room
}

// MessageStats counts a room's messages and finds the newest CreatedAt.
func MessageStats(ctx context.Context, db *gorm.DB, roomID string) (RoomStats, error) {
	var st RoomStats
	room := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.ChatMessage{}).Where("room_id = ?", roomID)
	}
	if err := room().Count(&st.Count).Error; err != nil || st.Count == 0 {
		return st, err
	}

	// MAX(created_at) comes back as TEXT from SQLite; scan the column instead.
	var newest domain.ChatMessage
	if err := room().Select("created_at").Order("created_at DESC").Limit(1).Scan(&newest).Error; err != nil {
		return RoomStats{}, err
	}
	st.Latest = newest.CreatedAt
	return st, nil
}
