package stream

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/davronbekov/taxipark-backend/pkg/logger"
	redisclient "github.com/davronbekov/taxipark-backend/pkg/redis"
)

// Collections carried on the change feed. The SPA subscribes per
// collection and refetches on every event.
const (
	CollectionDrivers       = "drivers"
	CollectionTransactions  = "transactions"
	CollectionSalaries      = "driver_salaries"
	CollectionReversals     = "payment_reversals"
	CollectionNotifications = "notifications"
	CollectionAdminUsers    = "admin_users"
)

// Ops describe what happened to the named record.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event is the wire payload published after a committed mutation. The
// payload intentionally carries no record body: consumers refetch, so a
// lost event degrades freshness, never correctness.
type Event struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
	ID         string `json:"id"`
}

type feedClient interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
	StreamChannel(collection string) string
}

// Publisher fans mutation events out over Redis pub/sub.
type Publisher struct {
	client feedClient
	logg   *logger.Logger
}

// NewPublisher wires the change-feed publisher.
func NewPublisher(client *redisclient.Client, logg *logger.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Publisher{client: client, logg: logg}, nil
}

// Publish emits one event on the collection's channel. Failures are
// logged and swallowed: the feed is best-effort and must never fail a
// committed mutation after the fact.
func (p *Publisher) Publish(ctx context.Context, collection, op, id string) {
	event := Event{Collection: collection, Op: op, ID: id}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logg.Error(ctx, "marshal change feed event", err)
		return
	}
	if err := p.client.Publish(ctx, p.client.StreamChannel(collection), payload); err != nil {
		p.logg.Error(ctx, "publish change feed event", err)
	}
}

// Subscribe opens a feed over the requested collections (all known
// collections when none are given). Events arrive on the returned
// channel until ctx is done.
func (p *Publisher) Subscribe(ctx context.Context, collections ...string) (<-chan Event, error) {
	if len(collections) == 0 {
		collections = []string{
			CollectionDrivers,
			CollectionTransactions,
			CollectionSalaries,
			CollectionReversals,
			CollectionNotifications,
			CollectionAdminUsers,
		}
	}

	channels := make([]string, 0, len(collections))
	for _, collection := range collections {
		channels = append(channels, p.client.StreamChannel(collection))
	}

	sub, err := p.client.Subscribe(ctx, channels...)
	if err != nil {
		return nil, fmt.Errorf("subscribe change feed: %w", err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer func() { _ = sub.Close() }()

		incoming := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-incoming:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					p.logg.Error(ctx, "decode change feed event", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}
