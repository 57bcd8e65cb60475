package db

import (
	"database/sql"
	"fmt"
	"time"

	"hackathonwallah/config"
	"hackathonwallah/logger"

	_ "github.com/lib/pq"
)

var DB *sql.DB

func InitDB() error {
	var err error
	connStr := config.GetDBConnString()

	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	DB.SetMaxOpenConns(20)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(30 * time.Minute)

	// Test the connection
	err = DB.Ping()
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Create tables
	if err := createTables(); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	logger.Info("Database connected and schema ensured")
	return nil
}

// Close releases the connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

func createTables() error {
	return Migrate(DB)
}

// Migrate applies the schema to conn. Every statement is idempotent.
func Migrate(conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		phone TEXT,
		college_name TEXT,
		year_of_study TEXT,
		branch TEXT,
		role TEXT NOT NULL DEFAULT 'student',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`ALTER TABLE users ADD COLUMN IF NOT EXISTS deleted_at TIMESTAMPTZ;`,

	`CREATE TABLE IF NOT EXISTS hackathons (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL,
		short_description TEXT,
		banner_url TEXT,
		logo_url TEXT,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		registration_start TIMESTAMPTZ NOT NULL,
		registration_end TIMESTAMPTZ NOT NULL,
		location_type TEXT NOT NULL CHECK (location_type IN ('online', 'offline', 'hybrid')),
		venue TEXT,
		city TEXT,
		max_participants INTEGER,
		current_participants INTEGER NOT NULL DEFAULT 0,
		min_team_size INTEGER NOT NULL DEFAULT 1,
		max_team_size INTEGER NOT NULL DEFAULT 4,
		registration_fee NUMERIC(10,2) NOT NULL DEFAULT 0,
		prize_pool NUMERIC(12,2) NOT NULL DEFAULT 0,
		first_prize NUMERIC(12,2) NOT NULL DEFAULT 0,
		second_prize NUMERIC(12,2) NOT NULL DEFAULT 0,
		third_prize NUMERIC(12,2) NOT NULL DEFAULT 0,
		themes TEXT[] NOT NULL DEFAULT '{}',
		rules TEXT,
		eligibility TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		hackathon_id UUID NOT NULL REFERENCES hackathons(id) ON DELETE RESTRICT,
		team_name TEXT,
		team_members JSONB NOT NULL DEFAULT '[]',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_id TEXT,
		submission_url TEXT,
		submission_description TEXT,
		submitted_at TIMESTAMPTZ,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, hackathon_id)
	);`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		participant_id UUID NOT NULL REFERENCES participants(id) ON DELETE RESTRICT,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		hackathon_id UUID NOT NULL REFERENCES hackathons(id) ON DELETE RESTRICT,
		order_id TEXT UNIQUE NOT NULL,
		payment_id TEXT,
		amount NUMERIC(10,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		status TEXT NOT NULL DEFAULT 'initiated',
		payment_method TEXT,
		payment_session_id TEXT,
		gateway TEXT NOT NULL,
		gateway_response JSONB NOT NULL DEFAULT '{}',
		refund_amount NUMERIC(10,2),
		refund_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE INDEX IF NOT EXISTS idx_payments_participant ON payments (participant_id, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'info',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		action_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		phone TEXT,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS payment_webhooks (
		id SERIAL PRIMARY KEY,
		event_id TEXT UNIQUE NOT NULL,
		gateway TEXT NOT NULL,
		event_type TEXT,
		order_id TEXT,
		signature_valid BOOLEAN NOT NULL DEFAULT FALSE,
		payload JSONB,
		processing_status TEXT NOT NULL DEFAULT 'RECEIVED',
		error_message TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS dlq_messages (
		id SERIAL PRIMARY KEY,
		message_id UUID UNIQUE NOT NULL DEFAULT gen_random_uuid(),
		topic TEXT NOT NULL,
		key TEXT,
		value JSONB,
		error_message TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 5,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_retry_at TIMESTAMPTZ,
		resolved_at TIMESTAMPTZ
	);`,
}
