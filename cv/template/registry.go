package template

import (
	"embed"
	"errors"
	"fmt"
)

//go:embed assets/*.tex assets/*.png
var assetFiles embed.FS

// ErrNotFound indicates the requested template id is not registered.
var ErrNotFound = errors.New("template not found")

// Registry holds the published templates in registration order.
type Registry struct {
	order []string
	byID  map[string]Template
}

// NewRegistry loads the shipped templates from embedded assets.
func NewRegistry() (*Registry, error) {
	r := &Registry{byID: make(map[string]Template)}
	for _, def := range shippedTemplates {
		source, err := assetFiles.ReadFile("assets/" + def.sourceFile)
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", def.id, err)
		}
		// Thumbnails are best-effort; a template without one still registers.
		thumb, _ := assetFiles.ReadFile("assets/" + def.thumbFile)
		if err := r.register(Template{
			ID:        def.id,
			Name:      def.name,
			Schema:    def.schema,
			Source:    string(source),
			Thumbnail: thumb,
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t Template) error {
	if t.ID == "" {
		return errors.New("template id is required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return fmt.Errorf("template %s already registered", t.ID)
	}
	r.byID[t.ID] = t
	r.order = append(r.order, t.ID)
	return nil
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (Template, error) {
	t, ok := r.byID[id]
	if !ok {
		return Template{}, ErrNotFound
	}
	return t, nil
}

// List returns template metadata in registration order.
func (r *Registry) List() []Meta {
	out := make([]Meta, 0, len(r.order))
	for _, id := range r.order {
		t := r.byID[id]
		out = append(out, Meta{ID: t.ID, Name: t.Name})
	}
	return out
}

// Thumbnail returns the preview thumbnail for a template id.
func (r *Registry) Thumbnail(id string) ([]byte, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Thumbnail, nil
}

type templateDef struct {
	id         string
	name       string
	sourceFile string
	thumbFile  string
	schema     []Slot
}

var shippedTemplates = []templateDef{
	{
		id:         "cv_classic_v1",
		name:       "Classic",
		sourceFile: "cv_classic_v1.tex",
		thumbFile:  "cv_classic_v1.png",
		schema: []Slot{
			{Name: SlotName, Kind: SlotText, Required: true},
			{Name: SlotTitle, Kind: SlotText},
			{Name: SlotContact, Kind: SlotText, Required: true},
			{Name: SlotSummary, Kind: SlotText},
			{Name: SlotExperience, Kind: SlotEntries, Required: true},
			{Name: SlotEducation, Kind: SlotEntries},
			{Name: SlotSkills, Kind: SlotBullets},
			{Name: SlotProjects, Kind: SlotEntries},
			{Name: SlotAwards, Kind: SlotBullets},
			{Name: SlotPresentations, Kind: SlotBullets},
			{Name: SlotInterests, Kind: SlotBullets},
		},
	},
	{
		id:         "cv_modern_v1",
		name:       "Modern",
		sourceFile: "cv_modern_v1.tex",
		thumbFile:  "cv_modern_v1.png",
		schema: []Slot{
			{Name: SlotName, Kind: SlotText, Required: true},
			{Name: SlotTitle, Kind: SlotText},
			{Name: SlotContact, Kind: SlotText, Required: true},
			{Name: SlotSummary, Kind: SlotText},
			{Name: SlotExperience, Kind: SlotEntries},
			{Name: SlotEducation, Kind: SlotEntries},
			{Name: SlotSkills, Kind: SlotBullets},
			{Name: SlotProjects, Kind: SlotEntries},
			{Name: SlotInterests, Kind: SlotBullets},
		},
	},
}
