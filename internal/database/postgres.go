package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Info().Msg("Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table. refresh_token holds the single live refresh token;
		// NULL means no live token (logged out).
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			fullname VARCHAR(255),
			password_hash VARCHAR(255) NOT NULL,
			refresh_token TEXT,
			game_score INTEGER NOT NULL DEFAULT 0,
			avatar_image TEXT
		)`,

		// Quests table
		`CREATE TABLE IF NOT EXISTS quests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			quest_name VARCHAR(255) NOT NULL,
			description TEXT,
			duration VARCHAR(50),
			checkin_frequency VARCHAR(50),
			checkin_time VARCHAR(20),
			icon_id INTEGER,
			start_date DATE,
			end_date DATE,
			category_id INTEGER,
			created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'active'
		)`,

		// Quest membership table. One row per (user, quest); the owner row is
		// created in the same transaction as the quest itself.
		`CREATE TABLE IF NOT EXISTS user_quests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			quest_id UUID NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
			role VARCHAR(20) NOT NULL DEFAULT 'participant',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, quest_id)
		)`,

		// Friendships table. The pair is unordered; requester is user_id.
		`CREATE TABLE IF NOT EXISTS friendships (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			friend_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, friend_id)
		)`,

		// Quest chat messages (append-only)
		`CREATE TABLE IF NOT EXISTS quest_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			quest_id UUID NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message_text TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_created_by ON quests(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_updated_at ON quests(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_user_quests_quest_id ON user_quests(quest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_quests_user_id ON user_quests(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_user_id ON friendships(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_friend_id ON friendships(friend_id)`,
		`CREATE INDEX IF NOT EXISTS idx_quest_messages_quest_id ON quest_messages(quest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_quest_messages_sent_at ON quest_messages(sent_at)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Info().Msg("PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
