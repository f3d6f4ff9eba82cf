package artifacts

import (
	"bytes"
	"container/list"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"cv-backend/internal/shared/storage/object"
	"cv-backend/internal/shared/telemetry"
	"cv-backend/internal/shared/util"
)

// Producer renders a fresh artifact for a key on cache miss.
type Producer func(ctx context.Context) (Artifact, error)

// Cache is the content-addressed artifact store. An in-memory LRU with TTL
// fronts the persistent index (Repo) and blob store (ObjectStore). All
// mutation goes through GetOrCreate, which serializes producers per key:
// concurrent callers with the same key await the in-flight render instead
// of triggering duplicates, while distinct keys proceed fully in parallel.
type Cache struct {
	repo  Repo
	store object.ObjectStore

	group singleflight.Group

	mu         sync.Mutex
	entries    map[string]*list.Element
	lru        *list.List
	maxEntries int
	ttl        time.Duration

	now func() time.Time
}

type cacheEntry struct {
	key      string
	artifact Artifact
	addedAt  time.Time
}

// NewCache constructs a Cache. maxEntries <= 0 disables the count bound;
// ttl <= 0 disables age expiry.
func NewCache(repo Repo, store object.ObjectStore, maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		repo:       repo,
		store:      store,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Lookup returns the cached artifact for the key, or ErrNotFound.
func (c *Cache) Lookup(ctx context.Context, key Key) (Artifact, error) {
	if art, ok := c.lookupMemory(key.String()); ok {
		return art, nil
	}
	return c.lookupStored(ctx, key)
}

type createResult struct {
	artifact Artifact
	hit      bool
}

// GetOrCreate returns the artifact for the key, invoking producer at most
// once per key system-wide on miss. The returned hit flag reports whether
// this call was served without running its own producer.
func (c *Cache) GetOrCreate(ctx context.Context, key Key, producer Producer) (Artifact, bool, error) {
	id := key.String()
	if art, ok := c.lookupMemory(id); ok {
		return art, true, nil
	}

	// produced is only set by the call whose closure actually runs;
	// singleflight waiters share its result without executing their own.
	produced := false
	v, err, _ := c.group.Do(id, func() (any, error) {
		produced = true
		// A waiter may have populated memory while we queued.
		if art, ok := c.lookupMemory(id); ok {
			return createResult{artifact: art, hit: true}, nil
		}

		art, err := c.lookupStored(ctx, key)
		if err == nil {
			c.add(art)
			return createResult{artifact: art, hit: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		art, err = producer(ctx)
		if err != nil {
			return nil, err
		}
		art.JobID = key.JobID
		art.TemplateID = key.TemplateID
		art.Fingerprint = key.Fingerprint
		if art.ID == "" {
			art.ID = uuid.NewString()
		}
		if art.CreatedAt.IsZero() {
			art.CreatedAt = c.now().UTC()
		}

		if err := c.persist(ctx, art); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.add(art)
		return createResult{artifact: art, hit: false}, nil
	})
	if err != nil {
		return Artifact{}, false, err
	}
	res := v.(createResult)
	return res.artifact, res.hit || !produced, nil
}

// LatestByJob loads the most recent artifact for a job.
func (c *Cache) LatestByJob(ctx context.Context, jobID string) (Artifact, error) {
	rec, err := c.repo.LatestByJob(ctx, jobID)
	if err != nil {
		return Artifact{}, wrapRepoErr(err)
	}
	return c.load(ctx, rec)
}

// LatestByJobTemplate loads the most recent artifact for a job and template.
func (c *Cache) LatestByJobTemplate(ctx context.Context, jobID, templateID string) (Artifact, error) {
	rec, err := c.repo.LatestByJobTemplate(ctx, jobID, templateID)
	if err != nil {
		return Artifact{}, wrapRepoErr(err)
	}
	return c.load(ctx, rec)
}

// ListByJob lists index records for a job, newest first.
func (c *Cache) ListByJob(ctx context.Context, jobID string, limit, offset int) ([]Record, error) {
	recs, err := c.repo.ListByJob(ctx, jobID, limit, offset)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	return recs, nil
}

func (c *Cache) lookupMemory(id string) (Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[id]
	if !ok {
		return Artifact{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.addedAt) > c.ttl {
		c.lru.Remove(elem)
		delete(c.entries, id)
		return Artifact{}, false
	}
	c.lru.MoveToFront(elem)
	return entry.artifact, true
}

// lookupStored consults the persistent index and reloads the blobs. A record
// whose blobs have vanished counts as a miss so the key re-renders.
func (c *Cache) lookupStored(ctx context.Context, key Key) (Artifact, error) {
	rec, err := c.repo.GetByKey(ctx, key)
	if err != nil {
		return Artifact{}, wrapRepoErr(err)
	}
	art, err := c.load(ctx, rec)
	if err != nil && errors.Is(err, object.ErrNotFound) {
		telemetry.Error("artifacts.blob_missing", map[string]any{
			"job_id":      rec.JobID,
			"template_id": rec.TemplateID,
			"pdf_key":     rec.PDFKey,
		})
		return Artifact{}, ErrNotFound
	}
	return art, err
}

func (c *Cache) load(ctx context.Context, rec Record) (Artifact, error) {
	pdf, err := object.ReadAll(ctx, c.store, rec.PDFKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Artifact{}, fmt.Errorf("load pdf: %w", err)
		}
		return Artifact{}, fmt.Errorf("%w: load pdf: %v", ErrUnavailable, err)
	}
	latex, err := object.ReadAll(ctx, c.store, rec.LatexKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Artifact{}, fmt.Errorf("load latex: %w", err)
		}
		return Artifact{}, fmt.Errorf("%w: load latex: %v", ErrUnavailable, err)
	}
	var preview []byte
	if rec.PreviewKey != "" {
		// Preview is best-effort at render time and at load time.
		preview, _ = object.ReadAll(ctx, c.store, rec.PreviewKey)
	}
	return Artifact{
		ID:          rec.ID,
		JobID:       rec.JobID,
		TemplateID:  rec.TemplateID,
		Fingerprint: rec.Fingerprint,
		PDF:         pdf,
		Latex:       latex,
		Preview:     preview,
		Pages:       rec.Pages,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (c *Cache) persist(ctx context.Context, art Artifact) error {
	jobKey, err := util.SanitizeFileName(art.JobID)
	if err != nil {
		jobKey = util.HashKey(art.JobID)
	}
	base := path.Join("artifacts", jobKey, art.TemplateID, art.Fingerprint)

	rec := Record{
		ID:          art.ID,
		JobID:       art.JobID,
		TemplateID:  art.TemplateID,
		Fingerprint: art.Fingerprint,
		PDFKey:      path.Join(base, "cv.pdf"),
		LatexKey:    path.Join(base, "cv.tex"),
		Pages:       art.Pages,
		CreatedAt:   art.CreatedAt,
	}

	size, err := c.store.Save(ctx, rec.PDFKey, "application/pdf", bytes.NewReader(art.PDF))
	if err != nil {
		return fmt.Errorf("save pdf: %w", err)
	}
	rec.PDFSize = size

	if _, err := c.store.Save(ctx, rec.LatexKey, "application/x-tex", bytes.NewReader(art.Latex)); err != nil {
		return fmt.Errorf("save latex: %w", err)
	}

	if len(art.Preview) > 0 {
		rec.PreviewKey = path.Join(base, "preview.png")
		if _, err := c.store.Save(ctx, rec.PreviewKey, "image/png", bytes.NewReader(art.Preview)); err != nil {
			// Preview persistence is best-effort, like preview rendering.
			telemetry.Error("artifacts.preview_save_failed", map[string]any{
				"job_id": art.JobID,
				"error":  err.Error(),
			})
			rec.PreviewKey = ""
		}
	}

	if err := c.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("index artifact: %w", err)
	}
	return nil
}

// add inserts into the LRU, evicting the oldest entries past the bound.
// Eviction only drops the map reference; an artifact already handed to a
// reader stays intact.
func (c *Cache) add(art Artifact) {
	id := art.Key().String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[id]; ok {
		elem.Value.(*cacheEntry).artifact = art
		c.lru.MoveToFront(elem)
		return
	}
	c.entries[id] = c.lru.PushFront(&cacheEntry{key: id, artifact: art, addedAt: c.now()})
	if c.maxEntries <= 0 {
		return
	}
	for c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func wrapRepoErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
