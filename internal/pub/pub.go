package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	WalletEventsChannel = "wallet_events"
)

// WalletEventPublisher fans ledger events out over a redis channel so
// presentation layers can refresh without polling.
type WalletEventPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewWalletEventPublisher(rdb *redis.Client, logger *zap.Logger) *WalletEventPublisher {
	return &WalletEventPublisher{rdb: rdb, logger: logger}
}

type WalletEvent struct {
	EventType    string    `json:"event_type"` // wallet.issued, wallet.retired, wallet.transferred, wallet.created, wallet.deleted
	WalletID     int64     `json:"wallet_id"`
	WalletNumber int       `json:"wallet_number,omitempty"`
	ToWalletID   int64     `json:"to_wallet_id,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	Note         string    `json:"note,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publish sends a wallet event to the redis channel. Delivery is
// best-effort; the ledger state committed before this point is authoritative.
func (p *WalletEventPublisher) Publish(ctx context.Context, event *WalletEvent) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, WalletEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("wallet event published",
		zap.String("event_type", event.EventType),
		zap.Int64("wallet_id", event.WalletID),
		zap.String("reference", event.Reference),
	)
	return nil
}
