package artifacts

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores artifact records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byKey map[string]Record
	byJob map[string][]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byKey: make(map[string]Record),
		byJob: make(map[string][]Record),
	}
}

// Create stores the record, replacing any prior record for the same key.
func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := Key{JobID: rec.JobID, TemplateID: rec.TemplateID, Fingerprint: rec.Fingerprint}.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[key]; exists {
		jobRecs := r.byJob[rec.JobID]
		for i := range jobRecs {
			if jobRecs[i].TemplateID == rec.TemplateID && jobRecs[i].Fingerprint == rec.Fingerprint {
				jobRecs = append(jobRecs[:i], jobRecs[i+1:]...)
				break
			}
		}
		r.byJob[rec.JobID] = jobRecs
	}
	r.byKey[key] = rec
	r.byJob[rec.JobID] = append(r.byJob[rec.JobID], rec)
	return nil
}

// GetByKey returns the record for the exact cache key.
func (r *MemoryRepo) GetByKey(ctx context.Context, key Key) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byKey[key.String()]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// LatestByJob returns the most recently created record for a job.
func (r *MemoryRepo) LatestByJob(ctx context.Context, jobID string) (Record, error) {
	return r.latest(ctx, jobID, "")
}

// LatestByJobTemplate returns the most recent record for a job and template.
func (r *MemoryRepo) LatestByJobTemplate(ctx context.Context, jobID, templateID string) (Record, error) {
	return r.latest(ctx, jobID, templateID)
}

func (r *MemoryRepo) latest(ctx context.Context, jobID, templateID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best Record
	found := false
	for _, rec := range r.byJob[jobID] {
		if templateID != "" && rec.TemplateID != templateID {
			continue
		}
		if !found || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
			found = true
		}
	}
	if !found {
		return Record{}, ErrNotFound
	}
	return best, nil
}

// ListByJob returns records for a job, newest first, with limit/offset.
func (r *MemoryRepo) ListByJob(ctx context.Context, jobID string, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	recs := append([]Record(nil), r.byJob[jobID]...)
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if offset >= len(recs) {
		return []Record{}, nil
	}
	recs = recs[offset:]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
