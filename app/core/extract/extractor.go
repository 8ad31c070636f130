// Package extract turns a free-form user message into a structured
// progress record, preferring the language model and degrading to the local
// heuristics whenever the model is unavailable or returns junk.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"missiontrack/app/core/nlp"
	"missiontrack/app/pkg/logger"
)

const (
	MethodAI       = "ai"
	MethodFallback = "fallback"
)

// Result pairs the extraction with the path that produced it. Err carries
// the reason for a fallback; it is informational, never fatal.
type Result struct {
	Extracted nlp.ExtractionResult `json:"extracted"`
	Method    string               `json:"method"`
	Err       string               `json:"error,omitempty"`
}

type Service struct {
	completer Completer
}

func NewService(c Completer) *Service {
	if c == nil {
		c = Unconfigured{}
	}
	return &Service{completer: c}
}

// Extract never fails: every error path lands on the heuristic extractor.
func (s *Service) Extract(ctx context.Context, message string) Result {
	raw, err := s.completer.Complete(ctx, "", ExtractionPrompt()+"\n\nUser message to analyze:\n\""+message+"\"")
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			logger.Error("extraction completion failed: %v", err)
		}
		return fallback(message, err)
	}

	extracted, err := parsePayload(raw)
	if err != nil {
		logger.Info("unusable extraction payload: %v", err)
		return fallback(message, err)
	}
	sanitize(&extracted, message)
	return Result{Extracted: extracted, Method: MethodAI}
}

func fallback(message string, err error) Result {
	r := Result{Extracted: nlp.FallbackExtract(message), Method: MethodFallback}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// parsePayload pulls the outermost JSON object out of the model's reply.
// Models wrap the object in prose ("Sure! {...}") often enough that we
// brace-match rather than unmarshal the whole reply.
func parsePayload(raw string) (nlp.ExtractionResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nlp.ExtractionResult{}, errors.New("json object not found in response")
	}
	payload := raw[start : end+1]

	if !gjson.Valid(payload) {
		return nlp.ExtractionResult{}, errors.New("malformed json in response")
	}
	parsed := gjson.Parse(payload)
	if !parsed.IsObject() {
		return nlp.ExtractionResult{}, errors.New("response payload is not an object")
	}
	if mid := parsed.Get("missionId"); mid.Exists() && mid.Type != gjson.Number && mid.Type != gjson.Null {
		return nlp.ExtractionResult{}, fmt.Errorf("missionId has type %s", mid.Type)
	}

	var out nlp.ExtractionResult
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nlp.ExtractionResult{}, err
	}
	return out, nil
}

// sanitize clamps model output onto the contract so downstream code never
// sees an out-of-range mission or a nil slice.
func sanitize(r *nlp.ExtractionResult, message string) {
	if r.MissionID < 0 || r.MissionID > 10 {
		r.MissionID = 0
	}
	switch r.MissionConfidence {
	case nlp.ConfidenceHigh, nlp.ConfidenceMedium, nlp.ConfidenceLow:
	default:
		if r.MissionID > 0 {
			r.MissionConfidence = nlp.ConfidenceMedium
		} else {
			r.MissionConfidence = nlp.ConfidenceLow
		}
	}
	switch r.Sentiment {
	case nlp.SentimentPositive, nlp.SentimentNeutral, nlp.SentimentNegative, nlp.SentimentFrustrated:
	default:
		r.Sentiment = nlp.SentimentNeutral
	}
	if r.CompletedTasks == nil {
		r.CompletedTasks = []string{}
	}
	if r.InProgressTasks == nil {
		r.InProgressTasks = []string{}
	}
	if r.NewGoals == nil {
		r.NewGoals = []string{}
	}
	if r.Blockers == nil {
		r.Blockers = []string{}
	}
	if r.SuggestedActions == nil {
		r.SuggestedActions = []string{}
	}
	if strings.TrimSpace(r.RawSummary) == "" {
		r.RawSummary = nlp.Summarize(message, 100)
	}
}
