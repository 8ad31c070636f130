// Package pipeline wires one inbound chat message through extraction,
// progress reconciliation, and coaching, and returns the reply to send back.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"missiontrack/app/core/coach"
	"missiontrack/app/core/extract"
	"missiontrack/app/core/sync"
	"missiontrack/app/pkg/logger"
	"missiontrack/app/pkg/types"
)

type Config struct {
	Name           string
	HistoryLimit   int
	ExtractTimeout time.Duration
	CoachTimeout   time.Duration
}

type Pipeline struct {
	tracker   *sync.Tracker
	extractor *extract.Service
	coach     *coach.Service
	cfg       Config
}

func New(tracker *sync.Tracker, extractor *extract.Service, coachSvc *coach.Service, cfg Config) *Pipeline {
	if cfg.Name == "" {
		cfg.Name = "MissionTrack Coach"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 20 * time.Second
	}
	if cfg.CoachTimeout <= 0 {
		cfg.CoachTimeout = 30 * time.Second
	}
	return &Pipeline{tracker: tracker, extractor: extractor, coach: coachSvc, cfg: cfg}
}

func (p *Pipeline) Name() string { return p.cfg.Name }

// Process runs the full turn: persist the user message, extract and apply
// progress effects, then produce the coaching reply. Only persistence errors
// surface; extraction and coaching always degrade instead of failing.
func (p *Pipeline) Process(ctx context.Context, msg types.Message) (types.Message, error) {
	userID := msg.UserID
	if userID == "" {
		return types.Message{}, fmt.Errorf("message has no user id")
	}

	history, err := p.tracker.ChatHistory(ctx, userID, p.cfg.HistoryLimit)
	if err != nil {
		return types.Message{}, fmt.Errorf("load chat history: %w", err)
	}
	if _, err := p.tracker.AppendChat(ctx, userID, types.MessageRoleUser, msg.Content); err != nil {
		return types.Message{}, fmt.Errorf("persist user message: %w", err)
	}

	extractCtx, cancelExtract := context.WithTimeout(ctx, p.cfg.ExtractTimeout)
	result := p.extractor.Extract(extractCtx, msg.Content)
	cancelExtract()

	logged := p.applyExtraction(ctx, userID, msg.Content, result)

	all, err := p.tracker.All(ctx, userID)
	if err != nil {
		return types.Message{}, fmt.Errorf("load progress: %w", err)
	}
	current := coach.DetectCurrentMission(result.Extracted.MissionID, all)

	coachCtx, cancelCoach := context.WithTimeout(ctx, p.cfg.CoachTimeout)
	reply := p.coach.Respond(coachCtx, coach.Request{
		Message:         msg.Content,
		History:         history,
		ProgressContext: coach.ProgressContext(all),
		SystemPrompt:    coach.BuildPrompt(current),
	})
	cancelCoach()

	if _, err := p.tracker.AppendChat(ctx, userID, types.MessageRoleAssistant, reply.Response); err != nil {
		return types.Message{}, fmt.Errorf("persist reply: %w", err)
	}

	p.applyActions(ctx, userID, logged, reply.Actions)

	return types.Message{
		ID:        uuid.NewString(),
		Content:   reply.Response,
		Role:      types.MessageRoleAssistant,
		ChannelID: msg.ChannelID,
		UserID:    userID,
		Meta: map[string]interface{}{
			"extraction": result.Extracted,
			"method":     result.Method,
			"actions":    reply.Actions,
		},
	}, nil
}

// applyExtraction folds the structured record into progress state. Returns
// the mission id the raw message was logged to, or 0.
func (p *Pipeline) applyExtraction(ctx context.Context, userID, message string, result extract.Result) int {
	ex := result.Extracted
	if ex.MissionID < 1 {
		return 0
	}

	if _, err := p.tracker.AppendLog(ctx, userID, ex.MissionID, message); err != nil {
		logger.Error("log append failed for mission %d: %v", ex.MissionID, err)
		return 0
	}

	for _, task := range ex.CompletedTasks {
		goal, changed, err := p.tracker.CompleteTask(ctx, userID, ex.MissionID, task)
		if err != nil {
			logger.Error("completion failed for %q: %v", task, err)
			continue
		}
		if changed {
			logger.Info("completed goal %q for mission %d", goal.Text, ex.MissionID)
		}
	}

	// in-progress mentions and explicit new goals both land as additions,
	// with the duplicate check collapsing anything already tracked
	for _, task := range ex.InProgressTasks {
		if _, _, err := p.tracker.AddGoal(ctx, userID, ex.MissionID, task); err != nil {
			logger.Error("goal add failed for %q: %v", task, err)
		}
	}
	for _, goal := range ex.NewGoals {
		if _, added, err := p.tracker.AddGoal(ctx, userID, ex.MissionID, goal); err != nil {
			logger.Error("goal add failed for %q: %v", goal, err)
		} else if added {
			logger.Info("added new goal %q to mission %d", goal, ex.MissionID)
		}
	}
	return ex.MissionID
}

// applyActions handles coach-derived follow-ups. A log action that targets
// the mission the message was already logged to is skipped so one turn never
// records the same update twice.
func (p *Pipeline) applyActions(ctx context.Context, userID string, loggedMission int, actions []coach.Action) {
	for _, a := range actions {
		switch a.Type {
		case coach.ActionLog:
			if a.MissionID < 1 || a.MissionID == loggedMission {
				continue
			}
			if _, err := p.tracker.AppendLog(ctx, userID, a.MissionID, a.Text); err != nil {
				logger.Error("action log failed for mission %d: %v", a.MissionID, err)
			}
		case coach.ActionCompleteGoal:
			if a.MissionID < 1 {
				continue
			}
			var err error
			if a.GoalID != "" {
				_, err = p.tracker.CompleteGoal(ctx, userID, a.MissionID, a.GoalID)
			} else if a.Text != "" {
				_, _, err = p.tracker.CompleteTask(ctx, userID, a.MissionID, a.Text)
			}
			if err != nil {
				logger.Error("action complete failed for mission %d: %v", a.MissionID, err)
			}
		case coach.ActionCheckCompletion:
			// advisory only; completions were already attempted above
		}
	}
}
