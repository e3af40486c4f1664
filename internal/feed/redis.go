package feed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const DefaultChannel = "donationhub:feed"

// RedisBridge relays local hub events to a Redis channel and republishes
// events from other instances into the local hub.
type RedisBridge struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	origin  string
	logger  zerolog.Logger
	ready   chan struct{}
}

func NewRedisBridge(client redis.UniversalClient, channel string, hub *Hub, logger zerolog.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
		origin:  uuid.NewString(),
		logger:  logger.With().Str("component", "feed_bridge").Logger(),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once Run is subscribed on both sides.
func (b *RedisBridge) Ready() <-chan struct{} {
	return b.ready
}

// Run relays events until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	local := b.hub.Subscribe()
	defer local.Close()
	remote := ps.Channel()
	close(b.ready)
	b.logger.Info().Str("channel", b.channel).Msg("feed bridge subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-local.Events():
			if !ok {
				return nil
			}
			if ev.Origin != "" {
				continue
			}
			if err := b.send(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
				b.logger.Error().Err(err).Str("donation_id", ev.DonationID).Msg("feed bridge publish failed")
			}
		case msg, ok := <-remote:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn().Err(err).Msg("feed bridge dropped malformed event")
				continue
			}
			if ev.Origin == b.origin || ev.Origin == "" {
				continue
			}
			b.hub.Publish(ev)
		}
	}
}

func (b *RedisBridge) send(ctx context.Context, ev Event) error {
	ev.Origin = b.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}
