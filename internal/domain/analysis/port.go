package analysis

import "context"

// Repository defines persistence for stored analyses
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Paginate(ctx context.Context, owner string, page, pageSize int) ([]*Analysis, error)
}
