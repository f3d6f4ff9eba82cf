package artifacts

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, job_id, template_id, fingerprint, pdf_key, latex_key, preview_key, pdf_size_bytes, pages, created_at`

// Create inserts an artifact record. A re-render of an existing key (e.g.
// after blob loss) replaces the prior row rather than failing the unique
// constraint.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO artifacts (
    id, job_id, template_id, fingerprint, pdf_key, latex_key, preview_key, pdf_size_bytes, pages, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (job_id, template_id, fingerprint) DO UPDATE SET
    id = EXCLUDED.id,
    pdf_key = EXCLUDED.pdf_key,
    latex_key = EXCLUDED.latex_key,
    preview_key = EXCLUDED.preview_key,
    pdf_size_bytes = EXCLUDED.pdf_size_bytes,
    pages = EXCLUDED.pages,
    created_at = EXCLUDED.created_at`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.JobID,
		rec.TemplateID,
		rec.Fingerprint,
		rec.PDFKey,
		rec.LatexKey,
		rec.PreviewKey,
		rec.PDFSize,
		rec.Pages,
		rec.CreatedAt,
	)
	return err
}

// GetByKey returns the record for the exact cache key.
func (r *PGRepo) GetByKey(ctx context.Context, key Key) (Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM artifacts
WHERE job_id = $1 AND template_id = $2 AND fingerprint = $3
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, key.JobID, key.TemplateID, key.Fingerprint))
}

// LatestByJob returns the most recently created record for a job.
func (r *PGRepo) LatestByJob(ctx context.Context, jobID string) (Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM artifacts
WHERE job_id = $1
ORDER BY created_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, jobID))
}

// LatestByJobTemplate returns the most recent record for a job and template.
func (r *PGRepo) LatestByJobTemplate(ctx context.Context, jobID, templateID string) (Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM artifacts
WHERE job_id = $1 AND template_id = $2
ORDER BY created_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, jobID, templateID))
}

// ListByJob lists records for a job ordered newest-first.
func (r *PGRepo) ListByJob(ctx context.Context, jobID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + recordColumns + `
FROM artifacts
WHERE job_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, jobID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.JobID,
			&rec.TemplateID,
			&rec.Fingerprint,
			&rec.PDFKey,
			&rec.LatexKey,
			&rec.PreviewKey,
			&rec.PDFSize,
			&rec.Pages,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) scanOne(row *sql.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.JobID,
		&rec.TemplateID,
		&rec.Fingerprint,
		&rec.PDFKey,
		&rec.LatexKey,
		&rec.PreviewKey,
		&rec.PDFSize,
		&rec.Pages,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}
