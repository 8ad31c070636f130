package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"missiontrack/app/pkg/types"
)

// CLIChannel reads progress updates from stdin and prints coach replies.
type CLIChannel struct {
	id     string
	userID string
	out    *os.File
}

func NewCLIChannel(userID string) *CLIChannel {
	if strings.TrimSpace(userID) == "" {
		userID = "local_user"
	}
	return &CLIChannel{id: "cli", userID: userID, out: os.Stdout}
}

func (c *CLIChannel) ID() string {
	return c.id
}

func (c *CLIChannel) Start(ctx context.Context, handler func(types.Message)) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprintln(c.out, ">> MissionTrack CLI started. Log progress in plain English. Type 'exit' to quit.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			fmt.Fprint(c.out, "> ")
			if !scanner.Scan() {
				return nil
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if text == "exit" || text == "quit" {
				fmt.Fprintln(c.out, "Exiting CLI loop...")
				return nil
			}

			handler(types.Message{
				ID:        fmt.Sprintf("cli-%d", time.Now().UnixNano()),
				Content:   text,
				Role:      types.MessageRoleUser,
				ChannelID: c.id,
				UserID:    c.userID,
			})
		}
	}
}

func (c *CLIChannel) Send(ctx context.Context, msg types.Message) error {
	fmt.Fprintf(c.out, "[Coach]: %s\n", msg.Content)
	return nil
}
