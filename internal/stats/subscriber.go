package stats

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/finlit-quiz/pkg/http/ws"
)

type levelRanker interface {
	Top(ctx context.Context, level, limit int) ([]Entry, error)
}

// broadcastTop is how many entries follow a session event on the feed.
const broadcastTop = 10

// Broadcaster listens for session events on Redis Pub/Sub and forwards them
// to every admin feed connection, followed by the refreshed level standings.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	ranker  levelRanker
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a Pub/Sub powered feed broadcaster.
func NewBroadcaster(redis *redis.Client, hub *ws.Hub, ranker levelRanker, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = "finlit:sessions"
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		ranker:  ranker,
		channel: channel,
		logger:  logger.With().Str("component", "stats_broadcaster").Logger(),
	}
}

// Run subscribes to the event channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(ctx, msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(ctx context.Context, payload string) {
	var evt ws.SessionSavedPayload
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode session event payload")
		return
	}

	msg, err := ws.NewMessage(ws.TypeSessionSaved, evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal session WS payload")
		return
	}
	if err := b.hub.BroadcastAll(msg); err != nil {
		b.logger.Warn().Err(err).Msg("failed to broadcast session event")
	}

	if b.ranker == nil {
		return
	}
	entries, err := b.ranker.Top(ctx, evt.Level, broadcastTop)
	if err != nil {
		b.logger.Warn().Err(err).Int("level", evt.Level).Msg("failed to collect level stats")
		return
	}
	msg, err = ws.NewMessage(ws.TypeLevelStats, ws.LevelStatsPayload{Level: evt.Level, Top: toLevelEntries(entries)})
	if err != nil {
		return
	}
	if err := b.hub.BroadcastAll(msg); err != nil {
		b.logger.Warn().Err(err).Msg("failed to broadcast level stats")
	}
}
