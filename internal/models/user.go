package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname,omitempty"`

	// Never returned in JSON
	PasswordHash string `json:"-"`

	// Current refresh token. Exactly one is live per user; rotating or
	// clearing it invalidates every previously issued refresh token.
	RefreshToken string `json:"-"`

	GameScore   int    `json:"game_score"`
	AvatarImage string `json:"avatar_image,omitempty"`
}
