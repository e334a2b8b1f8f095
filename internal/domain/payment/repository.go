package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence port for payments.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
}
