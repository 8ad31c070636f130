package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"missiontrack/app/core/progress"
)

func TestHTTPStoreUpsertProgress(t *testing.T) {
	type seen struct {
		path   string
		prefer string
		apikey string
		body   []byte
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- seen{
			path:   r.URL.Path,
			prefer: r.Header.Get("Prefer"),
			apikey: r.Header.Get("apikey"),
			body:   body,
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "secret", time.Second)
	p := progress.Progress{
		MissionID: 3,
		Status:    progress.StatusInProgress,
		Goals:     []progress.Goal{{ID: "3-0", Text: "Learn advanced prompting", Completed: true}},
		Logs:      []progress.LogEntry{{ID: 1, Text: "note", Timestamp: 100}},
	}
	if err := store.UpsertProgress(context.Background(), "u1", p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	req := <-got
	if req.path != "/progress" {
		t.Fatalf("path = %s", req.path)
	}
	if req.prefer != "resolution=merge-duplicates" {
		t.Fatalf("prefer = %q", req.prefer)
	}
	if req.apikey != "secret" {
		t.Fatalf("apikey = %q", req.apikey)
	}

	row := gjson.ParseBytes(req.body)
	if row.Get("user_id").String() != "u1" || row.Get("mission_id").Int() != 3 {
		t.Fatalf("row key wrong: %s", req.body)
	}
	if row.Get("status").String() != progress.StatusInProgress {
		t.Fatalf("status = %s", row.Get("status").String())
	}
	if !row.Get("goals.0.completed").Bool() {
		t.Fatalf("goals not carried: %s", req.body)
	}
	if row.Get("completed_at").Type != gjson.Null {
		t.Fatalf("zero completed_at must mirror as null, got %s", row.Get("completed_at").Raw)
	}
	if row.Get("updated_at").Int() == 0 {
		t.Fatal("updated_at missing")
	}
}

func TestHTTPStoreAppendChat(t *testing.T) {
	got := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- r
		bodies <- body
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL+"/", "", time.Second)
	msg := progress.ChatMessage{ID: "m1", UserID: "u1", Role: "user", Content: "hi", CreatedAt: 42}
	if err := store.AppendChat(context.Background(), msg); err != nil {
		t.Fatalf("append: %v", err)
	}

	req := <-got
	if req.URL.Path != "/chat_history" {
		t.Fatalf("path = %s", req.URL.Path)
	}
	if req.Header.Get("Prefer") != "" {
		t.Fatal("chat insert must not request upsert resolution")
	}
	row := gjson.ParseBytes(<-bodies)
	if row.Get("role").String() != "user" || row.Get("created_at").Int() != 42 {
		t.Fatalf("row = %s", row.Raw)
	}
}

func TestHTTPStoreSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate key value", http.StatusConflict)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "", time.Second)
	err := store.UpsertProgress(context.Background(), "u1", progress.Progress{MissionID: 1})
	if err == nil {
		t.Fatal("conflict response reported as success")
	}
}

func TestDisabledRemoteIsNoop(t *testing.T) {
	var r RemoteStore = Disabled{}
	if err := r.UpsertProgress(context.Background(), "u1", progress.Progress{MissionID: 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := r.AppendChat(context.Background(), progress.ChatMessage{}); err != nil {
		t.Fatalf("chat: %v", err)
	}
}
