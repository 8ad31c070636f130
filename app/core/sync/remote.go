package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"missiontrack/app/core/progress"
)

// RemoteStore mirrors local writes to a shared backend. Implementations are
// best effort: the tracker never blocks on them and never rolls back local
// state when they fail.
type RemoteStore interface {
	UpsertProgress(ctx context.Context, userID string, p progress.Progress) error
	AppendChat(ctx context.Context, msg progress.ChatMessage) error
	Name() string
}

// Disabled is the remote used when no sync URL is configured. Every call
// succeeds without doing anything.
type Disabled struct{}

func (Disabled) UpsertProgress(context.Context, string, progress.Progress) error { return nil }
func (Disabled) AppendChat(context.Context, progress.ChatMessage) error          { return nil }
func (Disabled) Name() string                                                    { return "disabled" }

// HTTPStore talks to a PostgREST-style endpoint. Progress rows are upserted
// keyed on (user_id, mission_id) via the merge-duplicates resolution header;
// chat rows are plain inserts.
type HTTPStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPStore(baseURL, apiKey string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) Name() string { return "http" }

func (s *HTTPStore) UpsertProgress(ctx context.Context, userID string, p progress.Progress) error {
	goalsJSON, err := json.Marshal(p.Goals)
	if err != nil {
		return err
	}
	logsJSON, err := json.Marshal(p.Logs)
	if err != nil {
		return err
	}

	row := []byte(`{}`)
	row, _ = sjson.SetBytes(row, "user_id", userID)
	row, _ = sjson.SetBytes(row, "mission_id", p.MissionID)
	row, _ = sjson.SetBytes(row, "status", p.Status)
	row, _ = sjson.SetRawBytes(row, "goals", goalsJSON)
	row, _ = sjson.SetRawBytes(row, "logs", logsJSON)
	if p.CompletedAt > 0 {
		row, _ = sjson.SetBytes(row, "completed_at", p.CompletedAt)
	} else {
		row, _ = sjson.SetRawBytes(row, "completed_at", []byte("null"))
	}
	row, _ = sjson.SetBytes(row, "updated_at", time.Now().Unix())

	return s.post(ctx, "/progress", row, true)
}

func (s *HTTPStore) AppendChat(ctx context.Context, msg progress.ChatMessage) error {
	row := []byte(`{}`)
	row, _ = sjson.SetBytes(row, "user_id", msg.UserID)
	row, _ = sjson.SetBytes(row, "role", msg.Role)
	row, _ = sjson.SetBytes(row, "content", msg.Content)
	row, _ = sjson.SetBytes(row, "created_at", msg.CreatedAt)

	return s.post(ctx, "/chat_history", row, false)
}

func (s *HTTPStore) post(ctx context.Context, path string, body []byte, upsert bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if upsert {
		req.Header.Set("Prefer", "resolution=merge-duplicates")
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("remote %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
