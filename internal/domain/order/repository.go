package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence port for orders.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Save(ctx context.Context, o *Order) error
	AddComment(ctx context.Context, c *Comment) error
	GetComments(ctx context.Context, orderID uuid.UUID) ([]*Comment, error)
}
