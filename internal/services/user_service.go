package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/models"
)

// EmailInUse reports whether a user with this email already exists.
func EmailInUse(email string) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))
	`, email).Scan(&exists)
	return exists, err
}

// UsernameInUse reports whether a user with this username already exists.
func UsernameInUse(username string) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists)
	return exists, err
}

// CreateUser inserts a new user with an already-hashed password.
func CreateUser(username, email, fullname, passwordHash string) (*models.User, error) {
	u := &models.User{
		Username:     username,
		Email:        email,
		Fullname:     fullname,
		PasswordHash: passwordHash,
	}
	err := database.PostgresDB.QueryRow(`
		INSERT INTO users (username, email, fullname, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, username, email, fullname, passwordHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the full user record including the password hash,
// for credential verification at login.
func GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := database.PostgresDB.QueryRow(`
		SELECT id, created_at, updated_at, username, email, COALESCE(fullname, ''), password_hash
		FROM users WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Username, &u.Email, &u.Fullname, &u.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a user's public fields.
func GetUserByID(userID string) (*models.User, error) {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	var u models.User
	err = database.PostgresDB.QueryRow(`
		SELECT id, created_at, updated_at, username, email, COALESCE(fullname, ''), game_score, COALESCE(avatar_image, '')
		FROM users WHERE id = $1
	`, parsedID).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Username, &u.Email, &u.Fullname, &u.GameScore, &u.AvatarImage)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUsernameByID retrieves username by user ID (for chat display)
func GetUsernameByID(userID string) (string, error) {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return "", err
	}

	var username string
	err = database.PostgresDB.QueryRow(`
		SELECT username FROM users WHERE id = $1
	`, parsedID).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // User not found
		}
		return "", err
	}

	return username, nil
}

// StoreRefreshToken replaces the user's current refresh token. Overwriting
// the previous value is what invalidates earlier refresh tokens.
func StoreRefreshToken(userID, token string) error {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}
	res, err := database.PostgresDB.Exec(`
		UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2
	`, token, parsedID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStoredRefreshToken returns the user's current refresh token, or "" when
// none is stored.
func GetStoredRefreshToken(userID string) (string, error) {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return "", ErrNotFound
	}
	var token sql.NullString
	err = database.PostgresDB.QueryRow(`
		SELECT refresh_token FROM users WHERE id = $1
	`, parsedID).Scan(&token)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return token.String, nil
}

// ClearRefreshToken removes the user's stored refresh token (logout).
func ClearRefreshToken(userID string) error {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}
	_, err = database.PostgresDB.Exec(`
		UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1
	`, parsedID)
	return err
}
