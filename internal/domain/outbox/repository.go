package outbox

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Insert writes an entry, usually inside the transaction that produced
	// the event.
	Insert(ctx context.Context, entry *Entry) error

	// GetPending claims up to limit unpublished entries for the processor.
	GetPending(ctx context.Context, limit int) ([]*Entry, error)

	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed increments the retry count, moving the entry to failed once
	// retries are exhausted.
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
