package exports

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cv-backend/cv/bind"
	"cv-backend/cv/model"
	"cv-backend/cv/render"
	"cv-backend/cv/template"
	"cv-backend/internal/artifacts"
	"cv-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the export service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches export and artifact routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/exports", h.export)
	rg.GET("/artifacts", h.list)
	rg.GET("/artifacts/:jobId/pdf", h.downloadPDF)
	rg.GET("/artifacts/:jobId/latex", h.downloadLatex)
	rg.GET("/artifacts/:jobId/preview", h.preview)
	rg.GET("/templates", h.templates)
	rg.GET("/templates/:id/thumbnail", h.thumbnail)
}

type exportRequest struct {
	JobID         string          `json:"jobId"`
	TemplateID    string          `json:"templateId"`
	Content       model.CVContent `json:"content"`
	Model         string          `json:"model"`
	CustomContext string          `json:"customContext"`
}

type exportResponse struct {
	ArtifactID  string    `json:"artifactId"`
	JobID       string    `json:"jobId"`
	TemplateID  string    `json:"templateId"`
	Fingerprint string    `json:"fingerprint"`
	Pages       int       `json:"pages"`
	Cached      bool      `json:"cached"`
	PDF         []byte    `json:"pdf"`
	Latex       string    `json:"latex"`
	HasPreview  bool      `json:"hasPreview"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) export(c *gin.Context) {
	var req exportRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobId is required", nil)
		return
	}
	c.Set("jobId", req.JobID)
	c.Set("templateId", req.TemplateID)

	if err := req.Content.Validate(); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	art, cached, err := h.Svc.Generate(c.Request.Context(), req.JobID, req.TemplateID, req.Content, Params{
		Model:         req.Model,
		CustomContext: req.CustomContext,
	})
	if err != nil {
		respondExportError(c, err)
		return
	}
	c.Set("templateId", art.TemplateID)
	c.Set("cacheHit", cached)

	if wantsPDF(c) {
		writePDF(c, art, cached)
		return
	}

	respond.JSON(c, http.StatusOK, exportResponse{
		ArtifactID:  art.ID,
		JobID:       art.JobID,
		TemplateID:  art.TemplateID,
		Fingerprint: art.Fingerprint,
		Pages:       art.Pages,
		Cached:      cached,
		PDF:         art.PDF,
		Latex:       string(art.Latex),
		HasPreview:  len(art.Preview) > 0,
		CreatedAt:   art.CreatedAt,
	})
}

func respondExportError(c *gin.Context, err error) {
	var bindErr *bind.Error
	var compileErr *render.CompileError
	switch {
	case errors.Is(err, template.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "template_not_found", "template not found", nil)
	case errors.As(err, &bindErr):
		respond.Error(c, http.StatusUnprocessableEntity, "bind_error", "content is missing a required field", gin.H{
			"slot": bindErr.Slot,
		})
	case errors.Is(err, bind.ErrMissingRequiredField):
		respond.Error(c, http.StatusUnprocessableEntity, "bind_error", err.Error(), nil)
	case errors.Is(err, render.ErrTimeout):
		respond.Error(c, http.StatusGatewayTimeout, "render_timeout", "render did not finish in time", nil)
	case errors.As(err, &compileErr):
		respond.Error(c, http.StatusBadGateway, "compile_failed", "document failed to compile", gin.H{
			"diagnostic": compileErr.Diagnostic,
		})
	case errors.Is(err, render.ErrCompileFailed):
		respond.Error(c, http.StatusBadGateway, "compile_failed", "document failed to compile", nil)
	case errors.Is(err, artifacts.ErrUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "cache_unavailable", "artifact storage unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate export", nil)
	}
}

type artifactListItem struct {
	ArtifactID  string    `json:"artifactId"`
	JobID       string    `json:"jobId"`
	TemplateID  string    `json:"templateId"`
	Fingerprint string    `json:"fingerprint"`
	Pages       int       `json:"pages"`
	PDFSize     int64     `json:"pdfSizeBytes"`
	HasPreview  bool      `json:"hasPreview"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) list(c *gin.Context) {
	jobID := strings.TrimSpace(c.Query("jobId"))
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobId query parameter is required", nil)
		return
	}
	c.Set("jobId", jobID)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recs, err := h.Svc.List(c.Request.Context(), jobID, limit, offset)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	resp := make([]artifactListItem, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, artifactListItem{
			ArtifactID:  rec.ID,
			JobID:       rec.JobID,
			TemplateID:  rec.TemplateID,
			Fingerprint: rec.Fingerprint,
			Pages:       rec.Pages,
			PDFSize:     rec.PDFSize,
			HasPreview:  rec.PreviewKey != "",
			CreatedAt:   rec.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) downloadPDF(c *gin.Context) {
	jobID, templateID, ok := fetchParams(c)
	if !ok {
		return
	}
	art, err := h.Svc.FetchPDF(c.Request.Context(), jobID, templateID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	writePDF(c, art, true)
}

func (h *Handler) downloadLatex(c *gin.Context) {
	jobID, templateID, ok := fetchParams(c)
	if !ok {
		return
	}
	art, err := h.Svc.FetchLatex(c.Request.Context(), jobID, templateID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	c.Header("Content-Type", "application/x-tex")
	c.Header("Content-Disposition", "attachment; filename=\"cv.tex\"")
	c.Data(http.StatusOK, "application/x-tex", art.Latex)
}

func (h *Handler) preview(c *gin.Context) {
	jobID, templateID, ok := fetchParams(c)
	if !ok {
		return
	}
	art, err := h.Svc.FetchPreview(c.Request.Context(), jobID, templateID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", art.Preview)
}

func fetchParams(c *gin.Context) (jobID, templateID string, ok bool) {
	jobID = strings.TrimSpace(c.Param("jobId"))
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job id is required", nil)
		return "", "", false
	}
	c.Set("jobId", jobID)
	templateID = strings.TrimSpace(c.Query("templateId"))
	if templateID != "" {
		c.Set("templateId", templateID)
	}
	return jobID, templateID, true
}

func respondFetchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, artifacts.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
	case errors.Is(err, artifacts.ErrUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "cache_unavailable", "artifact storage unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch artifact", nil)
	}
}

func (h *Handler) templates(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Templates())
}

func (h *Handler) thumbnail(c *gin.Context) {
	data, err := h.Svc.Thumbnail(c.Param("id"))
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "template_not_found", "template not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load thumbnail", nil)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func wantsPDF(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/pdf")
}

func writePDF(c *gin.Context, art artifacts.Artifact, cached bool) {
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "attachment; filename=\"cv.pdf\"")
	if cached {
		c.Header("X-Cache", "hit")
	} else {
		c.Header("X-Cache", "miss")
	}
	c.Data(http.StatusOK, "application/pdf", art.PDF)
}

func decodeJSON(body io.ReadCloser, out any) error {
	if body == nil {
		return errors.New("request body is required")
	}
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		return errors.New("invalid json body")
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid json body")
	}
	return nil
}
