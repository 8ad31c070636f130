// Package gateway fans inbound channel messages into the responder and
// delivers replies back on the channel they arrived on.
package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"missiontrack/app/pkg/logger"
	"missiontrack/app/pkg/types"
)

type DefaultGateway struct {
	responder types.Responder
	channels  map[string]types.Channel
	mu        sync.RWMutex

	processedMessages uint64
	failedMessages    uint64
	lastMessageUnix   atomic.Int64
	startedUnix       atomic.Int64
}

type HealthStatus struct {
	Started            bool      `json:"started"`
	StartedAt          time.Time `json:"started_at"`
	RegisteredChannels []string  `json:"registered_channels"`
	Responder          string    `json:"responder"`
	ProcessedMessages  uint64    `json:"processed_messages"`
	FailedMessages     uint64    `json:"failed_messages"`
	LastMessageAt      time.Time `json:"last_message_at"`
}

func NewGateway(responder types.Responder) *DefaultGateway {
	return &DefaultGateway{
		responder: responder,
		channels:  make(map[string]types.Channel),
	}
}

func (g *DefaultGateway) RegisterChannel(c types.Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
	logger.Info("gateway registered channel: %s", c.ID())
}

// Start runs every registered channel until the context is canceled or all
// channel loops return.
func (g *DefaultGateway) Start(ctx context.Context) error {
	if g.responder == nil {
		return fmt.Errorf("gateway has no responder")
	}
	g.startedUnix.Store(time.Now().Unix())

	handler := func(msg types.Message) {
		atomic.AddUint64(&g.processedMessages, 1)
		g.lastMessageUnix.Store(time.Now().Unix())
		logger.Info("gateway received message channel=%s user=%s", msg.ChannelID, msg.UserID)

		if err := g.processAndReply(ctx, msg); err != nil {
			atomic.AddUint64(&g.failedMessages, 1)
			logger.Error("gateway processing failed: %v", err)
			g.sendErrorReply(ctx, msg, "Error: "+err.Error())
		}
	}

	var wg sync.WaitGroup
	g.mu.RLock()
	for _, c := range g.channels {
		wg.Add(1)
		go func(ch types.Channel) {
			defer wg.Done()
			if err := ch.Start(ctx, handler); err != nil {
				logger.Error("channel %s stopped: %v", ch.ID(), err)
			}
		}(c)
	}
	g.mu.RUnlock()

	logger.Info("gateway started all channels")
	wg.Wait()
	return nil
}

func (g *DefaultGateway) processAndReply(ctx context.Context, msg types.Message) error {
	response, err := g.responder.Process(ctx, msg)
	if err != nil {
		return fmt.Errorf("responder process: %w", err)
	}

	channel, ok := g.channelByID(msg.ChannelID)
	if !ok {
		return fmt.Errorf("channel not found for reply: %s", msg.ChannelID)
	}
	if err := channel.Send(ctx, response); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (g *DefaultGateway) sendErrorReply(ctx context.Context, msg types.Message, reason string) {
	channel, ok := g.channelByID(msg.ChannelID)
	if !ok {
		return
	}
	_ = channel.Send(ctx, types.Message{
		ID:        "resp-" + msg.ID,
		Content:   reason,
		Role:      types.MessageRoleAssistant,
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
	})
}

func (g *DefaultGateway) channelByID(id string) (types.Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

func (g *DefaultGateway) Health() HealthStatus {
	g.mu.RLock()
	channels := make([]string, 0, len(g.channels))
	for id := range g.channels {
		channels = append(channels, id)
	}
	g.mu.RUnlock()
	sort.Strings(channels)

	status := HealthStatus{
		Started:            g.startedUnix.Load() > 0,
		RegisteredChannels: channels,
		ProcessedMessages:  atomic.LoadUint64(&g.processedMessages),
		FailedMessages:     atomic.LoadUint64(&g.failedMessages),
	}
	if g.responder != nil {
		status.Responder = g.responder.Name()
	}
	if started := g.startedUnix.Load(); started > 0 {
		status.StartedAt = time.Unix(started, 0)
	}
	if last := g.lastMessageUnix.Load(); last > 0 {
		status.LastMessageAt = time.Unix(last, 0)
	}
	return status
}
