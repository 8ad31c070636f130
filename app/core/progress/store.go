package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"missiontrack/app/core/db"
)

// Store is the durable local cache for progress and chat. It is a fallback
// copy: the sync layer's in-memory state stays authoritative, this survives
// restarts.
type Store struct {
	db *db.DB
}

type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) UpsertProgress(ctx context.Context, userID string, p Progress) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	if p.MissionID < 1 {
		return fmt.Errorf("mission_id is required")
	}

	goalsJSON, err := json.Marshal(p.Goals)
	if err != nil {
		return err
	}
	logsJSON, err := json.Marshal(p.Logs)
	if err != nil {
		return err
	}

	query := `
INSERT INTO progress (user_id, mission_id, status, goals, logs, completed_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, mission_id) DO UPDATE SET
	status = excluded.status,
	goals = excluded.goals,
	logs = excluded.logs,
	completed_at = excluded.completed_at,
	updated_at = excluded.updated_at`
	_, err = s.db.Conn().ExecContext(ctx, query, userID, p.MissionID, p.Status, goalsJSON, logsJSON, p.CompletedAt, time.Now().Unix())
	return err
}

func (s *Store) GetProgress(ctx context.Context, userID string, missionID int) (Progress, error) {
	query := `SELECT mission_id, status, goals, logs, COALESCE(completed_at, 0) FROM progress WHERE user_id = ? AND mission_id = ?`
	var (
		p         Progress
		goalsJSON []byte
		logsJSON  []byte
	)
	err := s.db.Conn().QueryRowContext(ctx, query, userID, missionID).Scan(&p.MissionID, &p.Status, &goalsJSON, &logsJSON, &p.CompletedAt)
	if err != nil {
		return Progress{}, err
	}
	if err := json.Unmarshal(goalsJSON, &p.Goals); err != nil {
		return Progress{}, fmt.Errorf("decode goals for mission %d: %w", missionID, err)
	}
	if err := json.Unmarshal(logsJSON, &p.Logs); err != nil {
		return Progress{}, fmt.Errorf("decode logs for mission %d: %w", missionID, err)
	}
	return p, nil
}

// ListProgress returns every cached record for the user keyed by mission id.
// A user with no rows yet gets an empty map, not an error.
func (s *Store) ListProgress(ctx context.Context, userID string) (map[int]Progress, error) {
	query := `SELECT mission_id, status, goals, logs, COALESCE(completed_at, 0) FROM progress WHERE user_id = ?`
	rows, err := s.db.Conn().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]Progress{}
	for rows.Next() {
		var (
			p         Progress
			goalsJSON []byte
			logsJSON  []byte
		)
		if err := rows.Scan(&p.MissionID, &p.Status, &goalsJSON, &logsJSON, &p.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(goalsJSON, &p.Goals); err != nil {
			return nil, fmt.Errorf("decode goals for mission %d: %w", p.MissionID, err)
		}
		if err := json.Unmarshal(logsJSON, &p.Logs); err != nil {
			return nil, fmt.Errorf("decode logs for mission %d: %w", p.MissionID, err)
		}
		out[p.MissionID] = p
	}
	return out, rows.Err()
}

func (s *Store) AppendChat(ctx context.Context, userID, role, content string) (ChatMessage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ChatMessage{}, fmt.Errorf("user_id is required")
	}
	msg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	query := `INSERT INTO chat_history (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.Conn().ExecContext(ctx, query, msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}

// ChatHistory returns the most recent limit messages in chronological order.
func (s *Store) ChatHistory(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user_id, role, content, created_at FROM chat_history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.Conn().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ChatMessage, 0, limit)
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse to chronological order
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
