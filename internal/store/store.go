// Package store persists chat history and escalation records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hrchat/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ChatRecord is one stored question and its answer envelope.
type ChatRecord struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Question        string          `json:"question"`
	Answer          string          `json:"answer"`
	Confidence      float64         `json:"confidence"`
	NeedsEscalation bool            `json:"needsEscalation"`
	Reason          string          `json:"reason,omitempty"`
	Sources         []domain.Source `json:"sources"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EscalationRecord tracks a low-confidence answer awaiting human follow-up.
type EscalationRecord struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chat_id"`
	UserID     string    `json:"user_id"`
	Question   string    `json:"question"`
	Confidence float64   `json:"confidence"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	confidence REAL NOT NULL,
	needs_escalation INTEGER NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	sources TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id, created_at);

CREATE TABLE IF NOT EXISTS escalations (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	question TEXT NOT NULL,
	confidence REAL NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_escalations_status ON escalations(status, created_at);
`

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveChat stores the answered question and, when the envelope is flagged
// for escalation, an escalation record in the same transaction.
func (s *Store) SaveChat(ctx context.Context, userID, question string, env domain.AnswerEnvelope) (*ChatRecord, error) {
	rec := &ChatRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Question:        question,
		Answer:          env.Answer,
		Confidence:      env.Confidence,
		NeedsEscalation: env.NeedsEscalation,
		Reason:          env.Reason,
		Sources:         env.Sources,
		CreatedAt:       time.Now().UTC(),
	}
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return nil, fmt.Errorf("encode sources: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, question, answer, confidence, needs_escalation, reason, sources, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Question, rec.Answer, rec.Confidence,
		rec.NeedsEscalation, rec.Reason, string(sources), rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	if env.NeedsEscalation {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO escalations (id, chat_id, user_id, question, confidence, status, created_at)
			 VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
			uuid.NewString(), rec.ID, rec.UserID, rec.Question, rec.Confidence, rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert escalation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// ListChats returns chats newest first. An empty userID lists all users.
func (s *Store) ListChats(ctx context.Context, userID string, limit int) ([]ChatRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user_id, question, answer, confidence, needs_escalation, reason, sources, created_at
		FROM chats`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var records []ChatRecord
	for rows.Next() {
		rec, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetChat fetches one chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (*ChatRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, question, answer, confidence, needs_escalation, reason, sources, created_at
		 FROM chats WHERE id = ?`, id)
	rec, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// DeleteChat removes one chat and its escalation records.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM escalations WHERE chat_id = ?`, id)
	return err
}

// ClearChats removes all chats for a user, or every chat if userID is empty.
func (s *Store) ClearChats(ctx context.Context, userID string) error {
	if userID == "" {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM escalations`); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, `DELETE FROM chats`)
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM escalations WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE user_id = ?`, userID)
	return err
}

// ListEscalations returns escalations newest first, optionally filtered by status.
func (s *Store) ListEscalations(ctx context.Context, status string, limit int) ([]EscalationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, chat_id, user_id, question, confidence, status, created_at FROM escalations`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	var records []EscalationRecord
	for rows.Next() {
		var rec EscalationRecord
		if err := rows.Scan(&rec.ID, &rec.ChatID, &rec.UserID, &rec.Question,
			&rec.Confidence, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ResolveEscalation marks an escalation as handled.
func (s *Store) ResolveEscalation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE escalations SET status = 'resolved' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("resolve escalation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*ChatRecord, error) {
	var rec ChatRecord
	var sources string
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Question, &rec.Answer,
		&rec.Confidence, &rec.NeedsEscalation, &rec.Reason, &sources, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return &rec, nil
}
