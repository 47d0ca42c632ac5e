// Package domain defines the persistence models for users' skills, connection
// requests, conversations, and chat history. These types are mapped with GORM
// and form the core data layer of the skill-exchange backend.
package domain

import (
	"fmt"
	"time"
)

// Connection request statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// User is the local read model of an account owned by the identity system.
// The service never creates credentials; rows are provisioned externally.
//
// Fields:
//   - ID: numeric identity (ordering defines canonical conversation pairs).
//   - Username / Email: display data for candidate and connection summaries.
//   - SkillsHave / SkillsWant: skill assertions, loaded on demand.
type User struct {
	ID        uint64    `json:"id"         gorm:"primaryKey"`
	Username  string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex:ux_users_username"`
	Email     string    `json:"email"      gorm:"type:varchar(254);not null;default:''"`
	CreatedAt time.Time `json:"created_at"`

	SkillsHave []SkillHave `json:"skills_have,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	SkillsWant []SkillWant `json:"skills_want,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Skill is a catalog entry. Names are unique as stored; matching compares
// them trimmed and lower-cased.
type Skill struct {
	ID   uint64 `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:ux_skills_name"`
}

// TableName returns the database table name for Skill.
func (Skill) TableName() string { return "skills" }

// SkillHave asserts that a user can teach a skill at a proficiency level.
// A user holds at most one assertion per skill; setting it again replaces
// the level.
type SkillHave struct {
	ID      uint64 `json:"-"        gorm:"primaryKey"`
	UserID  uint64 `json:"user_id"  gorm:"not null;uniqueIndex:ux_skill_have_user_skill,priority:1"`
	SkillID uint64 `json:"skill_id" gorm:"not null;uniqueIndex:ux_skill_have_user_skill,priority:2"`
	Level   string `json:"level"    gorm:"type:varchar(16);not null;check:level IN ('beginner','intermediate','advanced')"`

	Skill Skill `json:"skill" gorm:"foreignKey:SkillID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SkillHave.
func (SkillHave) TableName() string { return "skill_have" }

// SkillWant records that a user wants to learn a skill.
type SkillWant struct {
	ID      uint64 `json:"-"        gorm:"primaryKey"`
	UserID  uint64 `json:"user_id"  gorm:"not null;uniqueIndex:ux_skill_want_user_skill,priority:1"`
	SkillID uint64 `json:"skill_id" gorm:"not null;uniqueIndex:ux_skill_want_user_skill,priority:2"`

	Skill Skill `json:"skill" gorm:"foreignKey:SkillID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SkillWant.
func (SkillWant) TableName() string { return "skill_want" }

// ConnectionRequest is a learner's request to be taught by another user.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - FromUserID / ToUserID: the learner and the prospective mentor.
//   - Message: optional note shown to the recipient.
//   - Status: pending, accepted, or rejected (enforced by DB constraint).
//   - ActiveKey: "from:to" while pending or accepted, NULL otherwise. Its
//     unique index guarantees one active request per ordered pair.
type ConnectionRequest struct {
	ID         string    `json:"id"           gorm:"type:char(36);primaryKey"`
	FromUserID uint64    `json:"from_user_id" gorm:"not null;index:idx_requests_from,priority:1"`
	ToUserID   uint64    `json:"to_user_id"   gorm:"not null;index:idx_requests_to,priority:1"`
	Message    string    `json:"message"      gorm:"type:varchar(255);not null;default:''"`
	Status     string    `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','accepted','rejected')"`
	ActiveKey  *string   `json:"-"            gorm:"type:varchar(64);uniqueIndex:ux_requests_active"`
	CreatedAt  time.Time `json:"created_at"   gorm:"index:idx_requests_from,priority:2;index:idx_requests_to,priority:2"`
	UpdatedAt  time.Time `json:"updated_at"`

	FromUser User `json:"-" gorm:"foreignKey:FromUserID;references:ID;constraint:OnDelete:CASCADE"`
	ToUser   User `json:"-" gorm:"foreignKey:ToUserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for ConnectionRequest.
func (ConnectionRequest) TableName() string { return "connection_requests" }

// ActivePairKey returns the value stored in ActiveKey for an ordered pair.
func ActivePairKey(from, to uint64) string {
	return fmt.Sprintf("%d:%d", from, to)
}

// Conversation is the durable channel between two connected users. The pair
// is stored in canonical order (UserAID < UserBID) and is unique.
type Conversation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserAID   uint64    `json:"user_a_id"  gorm:"not null;uniqueIndex:ux_conversations_pair,priority:1;check:chk_conversations_order,user_a_id < user_b_id"`
	UserBID   uint64    `json:"user_b_id"  gorm:"not null;uniqueIndex:ux_conversations_pair,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// HasParticipant reports whether userID is one of the two members.
func (c Conversation) HasParticipant(userID uint64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// ChatMessage is one persisted chat line in a relay room. Messages are read
// back in ascending CreatedAt order.
type ChatMessage struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	RoomID     string    `json:"room_id"     gorm:"type:varchar(128);not null;index:idx_room_msgs,priority:1"`
	SenderName string    `json:"sender_name" gorm:"type:varchar(150);not null"`
	Text       string    `json:"text"        gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_room_msgs,priority:2"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }
