package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	config "missiontrack/app/configs"
	"missiontrack/app/core/extract"
)

// extract-preview runs the progress extractor over a message without
// touching any stored state, so prompt and heuristic changes can be
// checked from the shell.
func main() {
	message := flag.String("message", "", "message to extract progress from (reads stdin lines when empty)")
	model := flag.String("model", "gpt-4o-mini", "model used when an API key is configured")
	baseURL := flag.String("base-url", "", "override the model API base URL")
	fallbackOnly := flag.Bool("fallback-only", false, "skip the model and use the heuristic extractor")
	timeoutText := flag.String("timeout", "20s", "per-message extraction timeout (Go duration format)")
	flag.Parse()

	timeout, err := time.ParseDuration(*timeoutText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract preview failed: invalid --timeout: %v\n", err)
		os.Exit(2)
	}

	var completer extract.Completer = extract.Unconfigured{}
	if key := config.APIKey(); key != "" && !*fallbackOnly {
		completer = extract.NewOpenAICompleter(extract.OpenAIConfig{
			APIKey:  key,
			Model:   *model,
			BaseURL: *baseURL,
		})
	}
	svc := extract.NewService(completer)

	if strings.TrimSpace(*message) != "" {
		preview(svc, *message, timeout)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		preview(svc, line, timeout)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "extract preview failed: read stdin: %v\n", err)
		os.Exit(2)
	}
}

func preview(svc *extract.Service, message string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := svc.Extract(ctx, message)
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract preview failed: marshal result: %v\n", err)
		os.Exit(2)
	}
	os.Stdout.Write(append(payload, '\n'))
}
