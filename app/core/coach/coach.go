// Package coach produces the conversational reply for each user message and
// derives follow-up actions from it. Coaching is strictly best effort: when
// the model is missing or errors, the user gets a canned nudge instead of a
// failure.
package coach

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"missiontrack/app/core/extract"
	"missiontrack/app/core/progress"
	"missiontrack/app/pkg/logger"
)

const (
	ActionLog             = "log"
	ActionCheckCompletion = "check_completion"
	ActionCompleteGoal    = "complete_goal"
)

const (
	unconfiguredReply = "I'm not connected yet! Add your API key to the configuration to enable AI coaching. In the meantime, keep tracking your progress manually - no excuses!"
	failureReply      = "Something went wrong on my end. But hey, that's not an excuse for you to stop working! Log your progress manually and try again later."
)

// Action is a side effect the pipeline should apply after sending the reply.
type Action struct {
	Type      string `json:"type"`
	MissionID int    `json:"missionId,omitempty"`
	GoalID    string `json:"goalId,omitempty"`
	Text      string `json:"text,omitempty"`
}

type Request struct {
	Message         string
	History         []progress.ChatMessage
	ProgressContext string
	SystemPrompt    string
}

type Response struct {
	Response string   `json:"response"`
	Actions  []Action `json:"actions"`
	Err      string   `json:"error,omitempty"`
}

type Service struct {
	completer extract.Completer
}

func NewService(c extract.Completer) *Service {
	if c == nil {
		c = extract.Unconfigured{}
	}
	return &Service{completer: c}
}

// Respond never fails; model problems degrade to a fixed reply with the
// actions still parsed from the user's own message.
func (s *Service) Respond(ctx context.Context, req Request) Response {
	reply, err := s.complete(ctx, req)
	if err != nil {
		if errors.Is(err, extract.ErrUnavailable) {
			return Response{Response: unconfiguredReply, Actions: ParseActions(req.Message), Err: err.Error()}
		}
		logger.Error("coaching completion failed: %v", err)
		return Response{Response: failureReply, Actions: ParseActions(req.Message), Err: err.Error()}
	}
	return Response{Response: reply, Actions: ParseActions(req.Message)}
}

func (s *Service) complete(ctx context.Context, req Request) (string, error) {
	var b strings.Builder
	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range req.History {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Current progress state:\n%s\n\nUser message: %s", req.ProgressContext, req.Message)

	reply, err := s.completer.Complete(ctx, req.SystemPrompt, b.String())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("empty coaching reply")
	}
	return reply, nil
}

var (
	weekMentionPattern = regexp.MustCompile(`(?i)week\s*(\d+)`)
	completionPhrases  = []string{"finished", "completed", "done with", "wrapped up"}
)

// ParseActions derives follow-up actions from the user's message: an explicit
// week mention logs the message to that mission, and a completion phrase asks
// the pipeline to re-check goal completion.
func ParseActions(userMessage string) []Action {
	actions := []Action{}
	lower := strings.ToLower(userMessage)

	if m := weekMentionPattern.FindStringSubmatch(lower); m != nil {
		if week, err := strconv.Atoi(m[1]); err == nil && week >= 1 && week <= 10 {
			actions = append(actions, Action{Type: ActionLog, MissionID: week, Text: userMessage})
		}
	}

	for _, phrase := range completionPhrases {
		if strings.Contains(lower, phrase) {
			actions = append(actions, Action{Type: ActionCheckCompletion})
			break
		}
	}
	return actions
}
