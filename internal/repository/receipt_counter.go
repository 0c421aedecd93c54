package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReceiptCounter hands out advisory receipt sequence numbers per
// payment method via Redis INCR. The numbers pre-fill the wizard's
// receipt field and are re-confirmed server-side at submit time.
type ReceiptCounter struct {
	client *redis.Client
}

// NewReceiptCounter constructs the counter.
func NewReceiptCounter(client *redis.Client) *ReceiptCounter {
	return &ReceiptCounter{client: client}
}

// Next returns the next sequence value for the given method key. The
// counters are namespaced by year so numbering restarts each school
// year.
func (c *ReceiptCounter) Next(ctx context.Context, method string) (int64, error) {
	if c.client == nil {
		return 0, fmt.Errorf("receipt counter unavailable")
	}
	key := fmt.Sprintf("receipts:seq:%s:%d", method, time.Now().UTC().Year())
	seq, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("next receipt number for %s: %w", method, err)
	}
	return seq, nil
}
