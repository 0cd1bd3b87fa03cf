package repository

import (
	"context"

	"github.com/sangkips/order-reconciler/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves a stored response by key and endpoint
	GetByKey(ctx context.Context, key, endpoint string) (*entity.IdempotencyKey, error)
	// Reserve claims the key and endpoint with a pending entry. It reports
	// false when a live entry, pending or complete, already holds them.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error)
	// Complete stores the response on a reserved entry
	Complete(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Release drops a reserved entry so the request can be retried
	Release(ctx context.Context, key, endpoint string) error
	// DeleteExpired removes expired idempotency keys (for cleanup)
	DeleteExpired(ctx context.Context) error
}
