package bind

import (
	"errors"
	"strings"
	"testing"

	"cv-backend/cv/model"
	"cv-backend/cv/template"
)

func testTemplate() template.Template {
	return template.Template{
		ID:   "test_tpl",
		Name: "Test",
		Schema: []template.Slot{
			{Name: template.SlotName, Kind: template.SlotText, Required: true},
			{Name: template.SlotTitle, Kind: template.SlotText},
			{Name: template.SlotContact, Kind: template.SlotText, Required: true},
			{Name: template.SlotSummary, Kind: template.SlotText},
			{Name: template.SlotExperience, Kind: template.SlotEntries, Required: true},
			{Name: template.SlotSkills, Kind: template.SlotBullets},
			{Name: template.SlotInterests, Kind: template.SlotBullets},
		},
		Source: strings.Join([]string{
			`\section*{{{NAME}}}`,
			`{{#TITLE}}\textit{{{TITLE}}}{{/TITLE}}`,
			`{{CONTACT}}`,
			`{{#SUMMARY}}\section*{Summary}`,
			`{{SUMMARY}}{{/SUMMARY}}`,
			`{{#EXPERIENCE}}\section*{Experience}`,
			`{{EXPERIENCE}}{{/EXPERIENCE}}`,
			`{{#SKILLS}}\section*{Skills}`,
			`{{SKILLS}}{{/SKILLS}}`,
			`{{#INTERESTS}}\section*{Interests}`,
			`{{INTERESTS}}{{/INTERESTS}}`,
		}, "\n"),
	}
}

func baseContent() model.CVContent {
	return model.CVContent{
		Header: model.CVHeader{
			Name:  "Dana Smith",
			Email: "dana@example.com",
			Links: []string{"https://github.com/dana"},
		},
		Experience: []model.CVExperience{{
			Company:    "Acme & Co",
			Role:       "Engineer",
			Start:      "2021-03",
			End:        "Present",
			Highlights: []string{"Raised coverage to 90%"},
		}},
	}
}

func TestBindSubstitutesAllSlots(t *testing.T) {
	content := baseContent()
	content.Summary = "Builds document pipelines."
	content.Skills = model.CVSkills{Languages: []string{"Go"}}
	content.Interests = []string{"Typography"}

	doc, err := Bind(testTemplate(), content)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if doc.TemplateID != "test_tpl" {
		t.Fatalf("TemplateID = %q", doc.TemplateID)
	}
	for _, want := range []string{
		`\section*{Dana Smith}`,
		`\href{https://github.com/dana}{github.com/dana}`,
		"Builds document pipelines.",
		`\textbf{Engineer} --- Acme \& Co`,
		`2021-03 -- Present`,
		`Raised coverage to 90\%`,
		`\textbf{Languages:} Go`,
		"Typography",
	} {
		if !strings.Contains(doc.Source, want) {
			t.Errorf("source missing %q", want)
		}
	}
	if strings.Contains(doc.Source, "{{") {
		t.Fatalf("unresolved tokens remain: %s", doc.Source)
	}
}

func TestBindMissingRequiredSlotNamesIt(t *testing.T) {
	content := baseContent()
	content.Experience = nil

	_, err := Bind(testTemplate(), content)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("err = %v, want ErrMissingRequiredField", err)
	}
	var bindErr *Error
	if !errors.As(err, &bindErr) {
		t.Fatalf("err = %T, want *Error", err)
	}
	if bindErr.Slot != template.SlotExperience {
		t.Fatalf("slot = %q, want %q", bindErr.Slot, template.SlotExperience)
	}
}

func TestBindEmptyListIsPresent(t *testing.T) {
	// experience: [] in the request body is a provided field. The section
	// disappears but binding succeeds.
	content := baseContent()
	content.Experience = []model.CVExperience{}

	doc, err := Bind(testTemplate(), content)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if strings.Contains(doc.Source, `\section*{Experience}`) {
		t.Fatal("empty experience block was kept")
	}
	if strings.Contains(doc.Source, "EXPERIENCE") {
		t.Fatal("experience tokens remain")
	}
}

func TestBindOptionalMissingSlotRemovesBlock(t *testing.T) {
	doc, err := Bind(testTemplate(), baseContent())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for _, gone := range []string{`\section*{Summary}`, `\section*{Skills}`, `\section*{Interests}`, `\textit{`} {
		if strings.Contains(doc.Source, gone) {
			t.Errorf("optional block %q should have been removed", gone)
		}
	}
	if tok := findUnresolvedToken(doc.Source); tok != "" {
		t.Fatalf("unresolved token %q", tok)
	}
}

func TestBindDeterministic(t *testing.T) {
	content := baseContent()
	content.Skills = model.CVSkills{Languages: []string{"Go"}, Tools: []string{"Docker"}}

	first, err := Bind(testTemplate(), content)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Bind(testTemplate(), content)
		if err != nil {
			t.Fatalf("Bind #%d: %v", i, err)
		}
		if again.Source != first.Source {
			t.Fatal("identical inputs produced different sources")
		}
	}
}

func TestBindUnknownTokenRejected(t *testing.T) {
	tpl := testTemplate()
	tpl.Source += "\n{{MYSTERY}}"
	_, err := Bind(tpl, baseContent())
	if err == nil || !strings.Contains(err.Error(), "MYSTERY") {
		t.Fatalf("err = %v, want unresolved placeholder error", err)
	}
}

func TestEscapeLaTeX(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"AT&T 100% $5 #1", `AT\&T 100\% \$5 \#1`},
		{"snake_case {braced}", `snake\_case \{braced\}`},
		{`C:\path`, `C:\textbackslash{}path`},
		{"approx~5^2", `approx\textasciitilde{}5\textasciicircum{}2`},
		{"héllo wörld", "héllo wörld"},
	}
	for _, tc := range cases {
		if got := EscapeLaTeX(tc.in); got != tc.want {
			t.Errorf("EscapeLaTeX(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderContactSeparatesParts(t *testing.T) {
	got := renderContact(model.CVHeader{
		Email:    "a@b.c",
		Phone:    "+1-555-0100",
		Location: "Austin, TX",
		Links:    []string{"https://example.com/me/"},
	})
	if !strings.Contains(got, `a@b.c \textbar{} +1-555-0100`) {
		t.Fatalf("missing separator: %s", got)
	}
	if !strings.Contains(got, `\href{https://example.com/me/}{example.com/me}`) {
		t.Fatalf("link not rendered: %s", got)
	}
}

func TestDateRange(t *testing.T) {
	for _, tc := range []struct{ start, end, want string }{
		{"2021-03", "Present", "2021-03 -- Present"},
		{"2021-03", "", "2021-03"},
		{"", "2023-01", "2023-01"},
		{"", "", ""},
	} {
		if got := dateRange(tc.start, tc.end); got != tc.want {
			t.Errorf("dateRange(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
		}
	}
}
