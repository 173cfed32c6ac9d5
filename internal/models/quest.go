package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestStatus is the lifecycle state of a quest itself.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestDropped   QuestStatus = "dropped"
)

type Quest struct {
	ID        uuid.UUID `json:"quest_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuestName        string      `json:"quest_name"`
	Description      string      `json:"description"`
	Duration         string      `json:"duration"`
	CheckinFrequency string      `json:"checkin_frequency"`
	CheckinTime      string      `json:"time"`
	IconID           int         `json:"icon_id"`
	StartDate        string      `json:"start_date"`
	EndDate          string      `json:"end_date"`
	CategoryID       int         `json:"category_id"`
	CreatedBy        uuid.UUID   `json:"created_by"`
	Status           QuestStatus `json:"status"`
}

// MembershipRole distinguishes the single owner row from participants.
type MembershipRole string

const (
	RoleOwner       MembershipRole = "owner"
	RoleParticipant MembershipRole = "participant"
)

// MembershipStatus is the per-(user, quest) state the membership state
// machine transitions between.
type MembershipStatus string

const (
	MembershipPending   MembershipStatus = "pending"
	MembershipInvited   MembershipStatus = "invited"
	MembershipActive    MembershipStatus = "active"
	MembershipDropped   MembershipStatus = "dropped"
	MembershipCompleted MembershipStatus = "completed"
)

// QuestMembership is one row of the user_quests relation. Exactly one row
// exists per (user, quest) pair, and exactly one owner row per quest.
type QuestMembership struct {
	ID       uuid.UUID        `json:"user_quest_id"`
	UserID   uuid.UUID        `json:"user_id"`
	QuestID  uuid.UUID        `json:"quest_id"`
	Role     MembershipRole   `json:"role"`
	Status   MembershipStatus `json:"status"`
	JoinedAt time.Time        `json:"joined_at"`
}

// QuestParticipant is the join of a membership row with its user's public identity.
type QuestParticipant struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Fullname string    `json:"fullname"`
}
