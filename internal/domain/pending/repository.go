package pending

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence port for pending authorizations.
//
// GetForUpdate must acquire an exclusive row lock scoped to the transaction in
// the caller's context; a concurrent load of the same id blocks until that
// transaction commits or rolls back.
type Repository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Authorization, error)
	Save(ctx context.Context, a *Authorization) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListDue(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error)
}
