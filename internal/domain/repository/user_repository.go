package repository

import (
	"context"

	"github.com/sangkips/order-reconciler/internal/domain/entity"
)

// UserRepository defines the interface for call-center agent lookups
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByUID(ctx context.Context, uid string) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
}
