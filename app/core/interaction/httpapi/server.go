// Package httpapi exposes the extraction, chat, progress, and summary
// operations over a small REST surface.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"missiontrack/app/core/extract"
	"missiontrack/app/core/summary"
	"missiontrack/app/core/sync"
	"missiontrack/app/pkg/logger"
	"missiontrack/app/pkg/types"
)

const defaultShutdownTimeout = 5 * time.Second

type Server struct {
	port          int
	defaultUserID string

	responder  types.Responder
	tracker    *sync.Tracker
	extractor  *extract.Service
	summarizer *summary.Service

	statusProvider func() interface{}
	server         *http.Server
}

func NewServer(port int, defaultUserID string, responder types.Responder, tracker *sync.Tracker, extractor *extract.Service, summarizer *summary.Service) *Server {
	if strings.TrimSpace(defaultUserID) == "" {
		defaultUserID = "local_user"
	}
	return &Server{
		port:          port,
		defaultUserID: defaultUserID,
		responder:     responder,
		tracker:       tracker,
		extractor:     extractor,
		summarizer:    summarizer,
	}
}

func (s *Server) SetStatusProvider(provider func() interface{}) {
	s.statusProvider = provider
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error: %v", err)
		}
	}()

	logger.Info("http api listening on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler returns the route table without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/extract", s.handleExtract)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/progress", s.handleProgress)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

type extractRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusOK, s.extractor.Extract(r.Context(), req.Message))
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

type chatResponse struct {
	Response   string      `json:"response"`
	Method     interface{} `json:"method,omitempty"`
	Extraction interface{} `json:"extraction,omitempty"`
	Actions    interface{} `json:"actions,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.responder.Process(r.Context(), types.Message{
		ID:        fmt.Sprintf("http-%d", time.Now().UnixNano()),
		Content:   req.Message,
		Role:      types.MessageRoleUser,
		ChannelID: "http",
		UserID:    s.userID(req.UserID),
	})
	if err != nil {
		logger.Error("chat processing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	resp := chatResponse{Response: reply.Content}
	if reply.Meta != nil {
		resp.Method = reply.Meta["method"]
		resp.Extraction = reply.Meta["extraction"]
		resp.Actions = reply.Meta["actions"]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := s.userID(r.URL.Query().Get("user_id"))

	all, err := s.tracker.All(r.Context(), userID)
	if err != nil {
		logger.Error("progress load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": all,
		"stats":    sync.ComputeStats(all),
	})
}

type summaryRequest struct {
	UserID string `json:"user_id,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	userID := s.userID(req.UserID)

	all, err := s.tracker.All(r.Context(), userID)
	if err != nil {
		logger.Error("progress load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	recent, err := s.tracker.ChatHistory(r.Context(), userID, 10)
	if err != nil {
		logger.Error("history load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	writeJSON(w, http.StatusOK, s.summarizer.Generate(r.Context(), all, recent))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.statusProvider != nil {
		writeJSON(w, http.StatusOK, s.statusProvider())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) userID(requested string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return s.defaultUserID
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
