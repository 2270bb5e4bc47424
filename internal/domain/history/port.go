package history

import (
	"context"
)

// Repository defines persistence for the append-only job audit log
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByJob(ctx context.Context, jobID string, limit int) ([]*Entry, error)
}
