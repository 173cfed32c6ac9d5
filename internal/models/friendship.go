package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipPending FriendshipStatus = "pending"
	FriendshipActive  FriendshipStatus = "active"
)

// Friendship stores an unordered user pair as two ordered columns: the
// requester is user_id, the approver friend_id. At most one row exists per
// pair regardless of direction, so lookups must check both orderings.
type Friendship struct {
	ID        uuid.UUID        `json:"friendship_id"`
	UserID    uuid.UUID        `json:"user_id"`
	FriendID  uuid.UUID        `json:"friend_id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
