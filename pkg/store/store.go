// Package store persists interaction history to MySQL. Logging is
// fire-and-forget from the request path: a storage failure is logged
// and retried in the background, never surfaced to the caller.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/ndthanh/engmate/pkg/resilience"
)

const createInteractionsTable = `
CREATE TABLE IF NOT EXISTS interactions (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	user_id VARCHAR(255) NOT NULL,
	agent_name VARCHAR(64) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	user_input_type VARCHAR(16) NOT NULL,
	user_input_content TEXT,
	ai_response_type VARCHAR(16) NOT NULL,
	ai_response_content MEDIUMTEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	metadata JSON,
	INDEX idx_interactions_user (user_id, created_at)
)`

// Interaction is one logged agent exchange.
type Interaction struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	AgentName         string         `json:"agent_name"`
	CreatedAt         time.Time      `json:"created_at"`
	UserInputType     string         `json:"user_input_type"` // "text" or "audio"
	UserInputContent  string         `json:"user_input_content"`
	AIResponseType    string         `json:"ai_response_type"` // "text", "json" or "error"
	AIResponseContent string         `json:"ai_response_content"`
	DurationMS        int64          `json:"duration_ms"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Store wraps the MySQL connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL with the given DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(3 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection, used by tests.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Init bootstraps the schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createInteractionsTable); err != nil {
		return fmt.Errorf("store: create interactions table: %w", err)
	}
	return nil
}

// LogInteraction inserts one interaction row.
func (s *Store) LogInteraction(ctx context.Context, in Interaction) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(in.Metadata)
	if err != nil {
		return fmt.Errorf("store: marshal metadata: %w", err)
	}

	const q = `INSERT INTO interactions
		(id, user_id, agent_name, created_at, user_input_type, user_input_content,
		 ai_response_type, ai_response_content, duration_ms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		in.ID, in.UserID, in.AgentName, in.CreatedAt,
		in.UserInputType, in.UserInputContent,
		in.AIResponseType, in.AIResponseContent,
		in.DurationMS, string(meta))
	if err != nil {
		return fmt.Errorf("store: insert interaction: %w", err)
	}
	return nil
}

// LogAsync records an interaction in the background with retries. It
// never fails the caller's request.
func (s *Store) LogAsync(in Interaction) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			return s.LogInteraction(ctx, in)
		})
		if err != nil {
			log.WithError(err).
				WithField("agent", in.AgentName).
				Error("store: async interaction log failed")
		}
	}()
}

// UserHistory returns the user's interactions, most recent first.
func (s *Store) UserHistory(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `SELECT id, user_id, agent_name, created_at, user_input_type, user_input_content,
			ai_response_type, ai_response_content, duration_ms, metadata
		FROM interactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query history: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		var meta sql.NullString
		if err := rows.Scan(&in.ID, &in.UserID, &in.AgentName, &in.CreatedAt,
			&in.UserInputType, &in.UserInputContent,
			&in.AIResponseType, &in.AIResponseContent,
			&in.DurationMS, &meta); err != nil {
			return nil, fmt.Errorf("store: scan history row: %w", err)
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &in.Metadata); err != nil {
				log.WithError(err).WithField("id", in.ID).Warn("store: bad metadata json, skipping field")
			}
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate history rows: %w", err)
	}
	return out, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }
