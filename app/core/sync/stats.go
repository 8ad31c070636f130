package sync

import (
	"context"
	"math"

	"missiontrack/app/core/progress"
)

// OverallStats aggregates one user's standing across the whole catalog.
type OverallStats struct {
	TotalMissions        int `json:"totalMissions"`
	CompletedMissions    int `json:"completedMissions"`
	InProgressMissions   int `json:"inProgressMissions"`
	TotalGoals           int `json:"totalGoals"`
	CompletedGoals       int `json:"completedGoals"`
	TotalLogs            int `json:"totalLogs"`
	CompletionPercentage int `json:"completionPercentage"`
}

func (t *Tracker) OverallStats(ctx context.Context, userID string) (OverallStats, error) {
	all, err := t.All(ctx, userID)
	if err != nil {
		return OverallStats{}, err
	}
	return ComputeStats(all), nil
}

// ComputeStats derives the aggregate view from a progress map. The percentage
// counts goals, not missions, so a lopsided mission does not skew the number.
func ComputeStats(all map[int]progress.Progress) OverallStats {
	s := OverallStats{TotalMissions: len(all)}
	for _, p := range all {
		switch p.Status {
		case progress.StatusCompleted:
			s.CompletedMissions++
		case progress.StatusInProgress:
			s.InProgressMissions++
		}
		s.TotalGoals += len(p.Goals)
		for _, g := range p.Goals {
			if g.Completed {
				s.CompletedGoals++
			}
		}
		s.TotalLogs += len(p.Logs)
	}
	if s.TotalGoals > 0 {
		s.CompletionPercentage = int(math.Round(float64(s.CompletedGoals) / float64(s.TotalGoals) * 100))
	}
	return s
}
