package pubsub

import (
	"context"
	"fmt"
	"sync"

	"polyglot-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ProgressChannel represents one subscription to the sync progress stream
type ProgressChannel struct {
	ID     string
	Filter *ProgressFilter
	Events chan *domain.SyncProgress
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// ProgressFilter filters progress events
type ProgressFilter struct {
	Shop       string   // Filter by shop domain
	Operations []string // Filter by operation names
}

// ProgressPubSub fans sync progress events out to SSE subscribers
type ProgressPubSub struct {
	mu       sync.RWMutex
	channels map[string]*ProgressChannel
	logger   zerolog.Logger
	nextID   int64
	idMu     sync.Mutex
}

// NewProgressPubSub creates a new progress pub/sub system
func NewProgressPubSub(logger zerolog.Logger) *ProgressPubSub {
	return &ProgressPubSub{
		channels: make(map[string]*ProgressChannel),
		logger:   logger,
	}
}

// Subscribe creates a new subscription channel
func (ps *ProgressPubSub) Subscribe(ctx context.Context, filter *ProgressFilter) *ProgressChannel {
	ps.idMu.Lock()
	ps.nextID++
	id := fmt.Sprintf("progress-%d", ps.nextID)
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &ProgressChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.SyncProgress, 32), // Buffered channel
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Info().
		Str("channelId", id).
		Interface("filter", filter).
		Msg("Progress subscription created")

	// Cleanup when context is cancelled
	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *ProgressPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Msg("Progress subscription removed")
}

// Publish broadcasts a progress event to all matching subscribers. Slow
// subscribers are skipped, never waited on.
func (ps *ProgressPubSub) Publish(event *domain.SyncProgress) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, channel := range ps.channels {
		if !ps.matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
		case <-channel.ctx.Done():
			// Channel is closed, skip
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping progress event")
		}
	}
}

// matchesFilter checks if an event matches the subscription filter
func (ps *ProgressPubSub) matchesFilter(event *domain.SyncProgress, filter *ProgressFilter) bool {
	if filter == nil {
		return true
	}

	if filter.Shop != "" && event.Shop != filter.Shop {
		return false
	}

	if len(filter.Operations) > 0 {
		match := false
		for _, op := range filter.Operations {
			if event.Operation == op {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	return true
}
