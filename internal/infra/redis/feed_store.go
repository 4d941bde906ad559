package redis

import (
	"context"

	"dilemma-survey-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

// DefaultFeedChannel is the pub/sub channel used when none is configured.
const DefaultFeedChannel = "dilemma:feed:changes"

// FeedStore keeps feeds in process and relays "statistics changed" notices
// between instances over Redis pub/sub. It satisfies both
// app.FeedRepository and app.ChangeBus.
//
//	PUBLISH {channel} {dilemmaName}
type FeedStore struct {
	*memory.FeedStore
	client  *redis.Client
	channel string
}

func NewFeedStore(client *redis.Client, channel string) *FeedStore {
	if channel == "" {
		channel = DefaultFeedChannel
	}
	return &FeedStore{
		FeedStore: memory.NewFeedStore(),
		client:    client,
		channel:   channel,
	}
}

// Announce tells every subscribed instance that the dilemma's statistics changed.
func (s *FeedStore) Announce(ctx context.Context, dilemmaName string) error {
	return s.client.Publish(ctx, s.channel, dilemmaName).Err()
}

// Changes subscribes to the channel and streams dilemma names until ctx is
// done. The subscription is confirmed before Changes returns, so an Announce
// made afterwards is never missed.
func (s *FeedStore) Changes(ctx context.Context) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
