package exports

import (
	"context"
	"fmt"
	"strings"

	"cv-backend/cv/bind"
	"cv-backend/cv/model"
	"cv-backend/cv/render"
	"cv-backend/cv/template"
	"cv-backend/internal/artifacts"
	"cv-backend/internal/shared/metrics"
	"cv-backend/internal/shared/telemetry"
	"cv-backend/internal/shared/util"
)

// Renderer compiles a bound document into a PDF.
type Renderer interface {
	Render(ctx context.Context, doc bind.BoundDocument) (render.Result, error)
}

// Params carries the generation inputs beyond the document content that
// participate in the cache fingerprint. Two requests that differ only in
// Model or CustomContext produce distinct artifacts.
type Params struct {
	Model         string
	CustomContext string
}

// Service generates CV artifacts and serves previously generated ones.
type Service struct {
	Registry          *template.Registry
	Cache             *artifacts.Cache
	Renderer          Renderer
	DefaultTemplateID string
}

// Generate produces the artifact for the given job, template and content.
// Identical inputs return the cached artifact without re-rendering; the
// bool reports whether the cache served the request.
func (s *Service) Generate(ctx context.Context, jobID, templateID string, content model.CVContent, p Params) (artifacts.Artifact, bool, error) {
	if templateID == "" {
		templateID = s.DefaultTemplateID
	}
	tpl, err := s.Registry.Get(templateID)
	if err != nil {
		return artifacts.Artifact{}, false, err
	}

	fingerprint, err := util.Fingerprint(map[string]any{
		"template": tpl.ID,
		"content":  content,
		"model":    p.Model,
		"context":  p.CustomContext,
	})
	if err != nil {
		return artifacts.Artifact{}, false, fmt.Errorf("fingerprint inputs: %w", err)
	}
	key := artifacts.Key{JobID: jobID, TemplateID: tpl.ID, Fingerprint: fingerprint}

	art, hit, err := s.Cache.GetOrCreate(ctx, key, func(ctx context.Context) (artifacts.Artifact, error) {
		return s.renderArtifact(ctx, tpl, content)
	})
	if err != nil {
		return artifacts.Artifact{}, false, err
	}
	if hit {
		metrics.IncCacheHit()
	} else {
		metrics.IncCacheMiss()
	}
	return art, hit, nil
}

func (s *Service) renderArtifact(ctx context.Context, tpl template.Template, content model.CVContent) (artifacts.Artifact, error) {
	doc, err := bind.Bind(tpl, content)
	if err != nil {
		return artifacts.Artifact{}, err
	}

	metrics.IncRenderStarted()
	start := metrics.NowMillis()
	res, err := s.Renderer.Render(ctx, doc)
	metrics.ObserveRenderDurationMs(metrics.NowMillis() - start)
	if err != nil {
		metrics.IncRenderFailed()
		telemetry.Error("exports.render_failed", map[string]any{
			"template_id": tpl.ID,
			"error":       err.Error(),
		})
		return artifacts.Artifact{}, err
	}
	metrics.IncRenderCompleted()

	return artifacts.Artifact{
		PDF:     res.PDF,
		Latex:   []byte(doc.Source),
		Preview: res.Preview,
		Pages:   res.Pages,
	}, nil
}

// FetchPDF returns the latest artifact for the job, optionally pinned to a
// template.
func (s *Service) FetchPDF(ctx context.Context, jobID, templateID string) (artifacts.Artifact, error) {
	return s.fetch(ctx, jobID, templateID)
}

// FetchLatex returns the latest artifact whose LaTeX source is requested.
func (s *Service) FetchLatex(ctx context.Context, jobID, templateID string) (artifacts.Artifact, error) {
	return s.fetch(ctx, jobID, templateID)
}

// FetchPreview returns the latest artifact that has a first-page preview.
// An artifact rendered without a preview reports ErrNotFound.
func (s *Service) FetchPreview(ctx context.Context, jobID, templateID string) (artifacts.Artifact, error) {
	art, err := s.fetch(ctx, jobID, templateID)
	if err != nil {
		return artifacts.Artifact{}, err
	}
	if len(art.Preview) == 0 {
		return artifacts.Artifact{}, artifacts.ErrNotFound
	}
	return art, nil
}

func (s *Service) fetch(ctx context.Context, jobID, templateID string) (artifacts.Artifact, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return artifacts.Artifact{}, artifacts.ErrNotFound
	}
	if templateID != "" {
		return s.Cache.LatestByJobTemplate(ctx, jobID, templateID)
	}
	return s.Cache.LatestByJob(ctx, jobID)
}

// List returns the artifact index entries for a job, newest first.
func (s *Service) List(ctx context.Context, jobID string, limit, offset int) ([]artifacts.Record, error) {
	return s.Cache.ListByJob(ctx, strings.TrimSpace(jobID), limit, offset)
}

// Templates lists the shipped template catalog.
func (s *Service) Templates() []template.Meta {
	return s.Registry.List()
}

// Thumbnail returns the catalog thumbnail for a template.
func (s *Service) Thumbnail(templateID string) ([]byte, error) {
	return s.Registry.Thumbnail(templateID)
}
