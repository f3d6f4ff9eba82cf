package template_test

import (
	"errors"
	"strings"
	"testing"

	"cv-backend/cv/bind"
	"cv-backend/cv/model"
	"cv-backend/cv/template"
)

func TestNewRegistryLoadsShippedTemplates(t *testing.T) {
	r, err := template.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	metas := r.List()
	if len(metas) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(metas))
	}
	if metas[0].ID != "cv_classic_v1" || metas[1].ID != "cv_modern_v1" {
		t.Fatalf("registration order changed: %+v", metas)
	}

	for _, meta := range metas {
		tpl, err := r.Get(meta.ID)
		if err != nil {
			t.Fatalf("Get(%s): %v", meta.ID, err)
		}
		if !strings.Contains(tpl.Source, `\documentclass`) {
			t.Errorf("%s: source is not a latex document", meta.ID)
		}
		if len(tpl.Schema) == 0 {
			t.Errorf("%s: empty schema", meta.ID)
		}
		thumb, err := r.Thumbnail(meta.ID)
		if err != nil || len(thumb) == 0 {
			t.Errorf("%s: missing thumbnail (err=%v)", meta.ID, err)
		}
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r, err := template.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := r.Get("cv_retro_v9"); !errors.Is(err, template.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := r.Thumbnail("cv_retro_v9"); !errors.Is(err, template.ErrNotFound) {
		t.Fatalf("thumbnail err = %v, want ErrNotFound", err)
	}
}

// Every declared slot must have a matching placeholder in its template
// source, and a full content payload must bind every shipped template
// without leftovers.
func TestShippedTemplatesBindFullContent(t *testing.T) {
	r, err := template.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	content := model.CVContent{
		Header: model.CVHeader{
			Name:     "Dana Smith",
			Title:    "Engineer",
			Email:    "dana@example.com",
			Phone:    "+1-555-0100",
			Location: "Austin, TX",
			Links:    []string{"https://github.com/dana"},
		},
		Summary: "Does things well.",
		Experience: []model.CVExperience{{
			Company: "Acme", Role: "Engineer", Start: "2020-01", End: "Present",
			Highlights: []string{"Did a thing"},
		}},
		Education: []model.CVEducation{{
			Institution: "State U", Degree: "B.S.", Field: "CS", Start: "2012-08", End: "2016-05",
		}},
		Skills:        model.CVSkills{Languages: []string{"Go"}},
		Projects:      []model.CVProject{{Name: "proj", Description: "a project"}},
		Awards:        []model.CVAward{{Title: "Best", Issuer: "Someone", Date: "2023-04"}},
		Presentations: []model.CVPresentation{{Title: "Talk", Venue: "Conf", Date: "2024-09"}},
		Interests:     []string{"Typography"},
	}
	if err := content.Validate(); err != nil {
		t.Fatalf("fixture content invalid: %v", err)
	}

	for _, meta := range r.List() {
		tpl, err := r.Get(meta.ID)
		if err != nil {
			t.Fatalf("Get(%s): %v", meta.ID, err)
		}
		for _, slot := range tpl.Schema {
			if !strings.Contains(tpl.Source, "{{"+slot.Name+"}}") &&
				!strings.Contains(tpl.Source, "{{#"+slot.Name+"}}") {
				t.Errorf("%s: schema slot %s has no placeholder in source", meta.ID, slot.Name)
			}
		}

		doc, err := bind.Bind(tpl, content)
		if err != nil {
			t.Fatalf("%s: Bind: %v", meta.ID, err)
		}
		if strings.Contains(doc.Source, "{{") {
			t.Errorf("%s: unresolved placeholders remain", meta.ID)
		}
		if !strings.Contains(doc.Source, "Dana Smith") {
			t.Errorf("%s: bound content missing", meta.ID)
		}
	}
}

// Required slots differ between the shipped layouts; the modern one accepts
// content with no work history.
func TestShippedTemplateRequiredSlots(t *testing.T) {
	r, err := template.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	minimal := model.CVContent{
		Header: model.CVHeader{Name: "Dana Smith", Email: "dana@example.com"},
	}

	classic, _ := r.Get("cv_classic_v1")
	if _, err := bind.Bind(classic, minimal); !errors.Is(err, bind.ErrMissingRequiredField) {
		t.Fatalf("classic err = %v, want ErrMissingRequiredField", err)
	}

	modern, _ := r.Get("cv_modern_v1")
	if _, err := bind.Bind(modern, minimal); err != nil {
		t.Fatalf("modern: %v", err)
	}
}
