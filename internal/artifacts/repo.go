package artifacts

import "context"

// Repo defines persistence operations for the artifact index.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	GetByKey(ctx context.Context, key Key) (Record, error)
	LatestByJob(ctx context.Context, jobID string) (Record, error)
	LatestByJobTemplate(ctx context.Context, jobID, templateID string) (Record, error)
	ListByJob(ctx context.Context, jobID string, limit, offset int) ([]Record, error)
}
