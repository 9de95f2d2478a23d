package store

import "context"

// Store is the durable key-value slot the storefront keeps its state in,
// one JSON document per key. Get reports false when the key is absent.
type Store interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	CartKey         = "shoppingCart"
	OrderHistoryKey = "orderHistory"
	StockKey        = "stockLevels"
	ProfileKey      = "userProfile"
)
