// internal/publisher/transaction_publisher.go
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ledger-bank/internal/domain"
)

// EventTransactionCommitted is emitted once per committed ledger transaction.
const EventTransactionCommitted = "transaction.committed"

// Config holds the Redis settings. An empty Addr disables publishing.
type Config struct {
	Addr     string `env:"REDIS_ADDR" env-default:""`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Channel  string `env:"REDIS_CHANNEL" env-default:"bank:transactions"`
}

// Enabled reports whether a Redis address is configured.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// TransactionEvent is the JSON payload published for a committed transaction.
type TransactionEvent struct {
	EventType         string          `json:"event_type"`
	TransactionID     int64           `json:"transaction_id"`
	TransactionType   string          `json:"transaction_type"`
	Amount            decimal.Decimal `json:"amount"`
	AccountID         int64           `json:"account_id"`
	ReceiverAccountID *int64          `json:"receiver_account,omitempty"`
	TransactionDate   time.Time       `json:"transaction_date"`
	PublishedAt       time.Time       `json:"published_at"`
}

// RedisPublisher publishes transaction events on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher writing to channel.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// PublishTransactionCommitted publishes the committed record.
func (p *RedisPublisher) PublishTransactionCommitted(ctx context.Context, tx *domain.Transaction) error {
	event := TransactionEvent{
		EventType:         EventTransactionCommitted,
		TransactionID:     tx.ID,
		TransactionType:   string(tx.Type),
		Amount:            tx.Amount,
		AccountID:         tx.AccountID,
		ReceiverAccountID: tx.ReceiverAccountID,
		TransactionDate:   tx.TransactionDate,
		PublishedAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NopPublisher discards events. It is used when Redis is not configured.
type NopPublisher struct{}

// PublishTransactionCommitted does nothing.
func (NopPublisher) PublishTransactionCommitted(context.Context, *domain.Transaction) error {
	return nil
}
