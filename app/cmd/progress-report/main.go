package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"missiontrack/app/core/db"
	"missiontrack/app/core/extract"
	"missiontrack/app/core/progress"
	"missiontrack/app/core/summary"
	"missiontrack/app/core/sync"
)

// progress-report reads a user's stored mission progress and prints
// either the raw state with aggregate stats or a generated summary
// report.
func main() {
	dataDir := flag.String("data-dir", filepath.Join("output", "db"), "path to the sqlite data directory")
	userID := flag.String("user", "local_user", "user whose progress to report")
	mode := flag.String("mode", "stats", "report mode: stats or summary")
	outputPath := flag.String("output", "-", "path to write the report (use - for stdout)")
	flag.Parse()

	database, err := db.NewSQLiteDB(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "progress report failed: open database: %v\n", err)
		os.Exit(2)
	}
	defer database.Close()

	tracker := sync.NewTracker(progress.NewStore(database), sync.Disabled{}, nil, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	all, err := tracker.All(ctx, *userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "progress report failed: load progress: %v\n", err)
		os.Exit(2)
	}

	var report interface{}
	switch *mode {
	case "stats":
		report = map[string]interface{}{
			"user":     *userID,
			"progress": all,
			"stats":    sync.ComputeStats(all),
		}
	case "summary":
		recent, err := tracker.ChatHistory(ctx, *userID, 10)
		if err != nil {
			fmt.Fprintf(os.Stderr, "progress report failed: load chat history: %v\n", err)
			os.Exit(2)
		}
		report = summary.NewService(extract.Unconfigured{}).Generate(ctx, all, recent)
	default:
		fmt.Fprintf(os.Stderr, "progress report failed: unknown --mode %q\n", *mode)
		os.Exit(2)
	}

	if err := writeReport(*outputPath, report); err != nil {
		fmt.Fprintf(os.Stderr, "progress report failed: %v\n", err)
		os.Exit(2)
	}
}

func writeReport(path string, report interface{}) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is required")
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	payload = append(payload, '\n')
	if path == "-" {
		_, err := os.Stdout.Write(payload)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	return os.WriteFile(path, payload, 0644)
}
