package bind

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cv-backend/cv/model"
	"cv-backend/cv/template"
)

// ErrMissingRequiredField indicates the content lacks a field the template
// declares required.
var ErrMissingRequiredField = errors.New("missing required field")

// Error reports which required slot could not be satisfied.
type Error struct {
	Slot string
}

func (e *Error) Error() string {
	return fmt.Sprintf("bind: missing required field %s", e.Slot)
}

func (e *Error) Unwrap() error { return ErrMissingRequiredField }

// BoundDocument is a fully substituted, self-contained LaTeX source ready
// for compilation. No lookups are needed downstream.
type BoundDocument struct {
	TemplateID string
	Source     string
}

// Bind merges CVContent into the template's placeholder schema.
//
// Required slots absent from the content fail with *Error naming the slot.
// Optional absent slots default deterministically: empty text for text slots,
// the whole template block removed for list slots. A present-but-empty list
// (e.g. experience: []) binds successfully with its block removed; only a
// field that is missing entirely is an error when required.
func Bind(tpl template.Template, content model.CVContent) (BoundDocument, error) {
	source := tpl.Source
	values := make(map[string]string, len(tpl.Schema))

	for _, slot := range tpl.Schema {
		rendered, present := resolveSlot(slot.Name, content)
		if slot.Required && !present {
			return BoundDocument{}, &Error{Slot: slot.Name}
		}
		values[slot.Name] = rendered
		source = expandBlock(source, slot.Name, rendered != "")
	}

	for name, rendered := range values {
		source = strings.ReplaceAll(source, "{{"+name+"}}", rendered)
	}

	if tok := findUnresolvedToken(source); tok != "" {
		return BoundDocument{}, fmt.Errorf("bind: unresolved placeholder %s in template %s", tok, tpl.ID)
	}

	return BoundDocument{TemplateID: tpl.ID, Source: source}, nil
}

// resolveSlot renders the content field backing a slot name. The present flag
// distinguishes a missing field from one that is present but empty.
func resolveSlot(name string, c model.CVContent) (string, bool) {
	switch name {
	case template.SlotName:
		v := strings.TrimSpace(c.Header.Name)
		return EscapeLaTeX(v), v != ""
	case template.SlotTitle:
		v := strings.TrimSpace(c.Header.Title)
		return EscapeLaTeX(v), v != ""
	case template.SlotContact:
		v := renderContact(c.Header)
		return v, v != ""
	case template.SlotSummary:
		v := strings.TrimSpace(c.Summary)
		return EscapeLaTeX(v), v != ""
	case template.SlotExperience:
		return renderExperience(c.Experience), c.Experience != nil
	case template.SlotEducation:
		return renderEducation(c.Education), c.Education != nil
	case template.SlotSkills:
		return renderSkills(c.Skills), !c.Skills.IsEmpty()
	case template.SlotProjects:
		return renderProjects(c.Projects), c.Projects != nil
	case template.SlotAwards:
		return renderAwards(c.Awards), c.Awards != nil
	case template.SlotPresentations:
		return renderPresentations(c.Presentations), c.Presentations != nil
	case template.SlotInterests:
		return renderInterests(c.Interests), c.Interests != nil
	default:
		return "", false
	}
}

// expandBlock keeps or removes the {{#NAME}}...{{/NAME}} region. Templates
// without a block for the slot are left untouched.
func expandBlock(source, name string, keep bool) string {
	open := "{{#" + name + "}}"
	closeTok := "{{/" + name + "}}"
	for {
		start := strings.Index(source, open)
		if start < 0 {
			return source
		}
		end := strings.Index(source[start:], closeTok)
		if end < 0 {
			return source
		}
		end += start
		if keep {
			inner := source[start+len(open) : end]
			source = source[:start] + strings.Trim(inner, "\n") + source[end+len(closeTok):]
		} else {
			source = source[:start] + source[end+len(closeTok):]
		}
	}
}

var tokenPattern = regexp.MustCompile(`\{\{[#/]?[A-Z_]+\}\}`)

func findUnresolvedToken(source string) string {
	return tokenPattern.FindString(source)
}

func renderContact(h model.CVHeader) string {
	var parts []string
	for _, v := range []string{h.Email, h.Phone, h.Location} {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			parts = append(parts, EscapeLaTeX(trimmed))
		}
	}
	for _, link := range h.Links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		label := strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
		label = strings.TrimSuffix(label, "/")
		parts = append(parts, fmt.Sprintf(`\href{%s}{%s}`, escapeURL(link), EscapeLaTeX(label)))
	}
	return strings.Join(parts, ` \textbar{} `)
}

func renderExperience(entries []model.CVExperience) string {
	var blocks []string
	for _, e := range entries {
		head := entryHeading(e.Role, e.Company, dateRange(e.Start, e.End))
		if loc := strings.TrimSpace(e.Location); loc != "" {
			head += "\n" + `{\small ` + EscapeLaTeX(loc) + `}\\`
		}
		blocks = append(blocks, head+renderHighlights(e.Highlights))
	}
	return strings.Join(blocks, "\n\\medskip\n")
}

func renderEducation(entries []model.CVEducation) string {
	var blocks []string
	for _, e := range entries {
		degree := strings.TrimSpace(e.Degree)
		if field := strings.TrimSpace(e.Field); field != "" {
			if degree != "" {
				degree += ", " + field
			} else {
				degree = field
			}
		}
		head := entryHeading(degree, e.Institution, dateRange(e.Start, e.End))
		blocks = append(blocks, head+renderHighlights(e.Highlights))
	}
	return strings.Join(blocks, "\n\\medskip\n")
}

func renderProjects(entries []model.CVProject) string {
	var blocks []string
	for _, p := range entries {
		head := entryHeading(p.Name, "", dateRange(p.Start, p.End))
		if desc := strings.TrimSpace(p.Description); desc != "" {
			head += "\n" + EscapeLaTeX(desc) + `\\`
		}
		blocks = append(blocks, head+renderHighlights(p.Highlights))
	}
	return strings.Join(blocks, "\n\\medskip\n")
}

func renderSkills(s model.CVSkills) string {
	categories := []struct {
		label string
		items []string
	}{
		{"Languages", s.Languages},
		{"Frameworks", s.Frameworks},
		{"Databases", s.Databases},
		{"Cloud", s.Cloud},
		{"Tools", s.Tools},
		{"Other", s.Other},
	}
	var items []string
	for _, cat := range categories {
		if len(cat.items) == 0 {
			continue
		}
		items = append(items, fmt.Sprintf(`\item \textbf{%s:} %s`, cat.label, escapeJoin(cat.items, ", ")))
	}
	return itemize(items)
}

func renderAwards(awards []model.CVAward) string {
	var items []string
	for _, a := range awards {
		line := EscapeLaTeX(strings.TrimSpace(a.Title))
		if issuer := strings.TrimSpace(a.Issuer); issuer != "" {
			line += " --- " + EscapeLaTeX(issuer)
		}
		if date := strings.TrimSpace(a.Date); date != "" {
			line += " (" + EscapeLaTeX(date) + ")"
		}
		items = append(items, `\item `+line)
	}
	return itemize(items)
}

func renderPresentations(entries []model.CVPresentation) string {
	var items []string
	for _, p := range entries {
		line := EscapeLaTeX(strings.TrimSpace(p.Title))
		if venue := strings.TrimSpace(p.Venue); venue != "" {
			line += ", " + EscapeLaTeX(venue)
		}
		if date := strings.TrimSpace(p.Date); date != "" {
			line += " (" + EscapeLaTeX(date) + ")"
		}
		items = append(items, `\item `+line)
	}
	return itemize(items)
}

func renderInterests(interests []string) string {
	return escapeJoin(interests, ", ")
}

func renderHighlights(highlights []string) string {
	var items []string
	for _, h := range highlights {
		if trimmed := strings.TrimSpace(h); trimmed != "" {
			items = append(items, `\item `+EscapeLaTeX(trimmed))
		}
	}
	if len(items) == 0 {
		return ""
	}
	return "\n" + itemize(items)
}

func entryHeading(primary, secondary, dates string) string {
	head := `\textbf{` + EscapeLaTeX(strings.TrimSpace(primary)) + `}`
	if sec := strings.TrimSpace(secondary); sec != "" {
		head += ` --- ` + EscapeLaTeX(sec)
	}
	if dates != "" {
		head += ` \hfill ` + EscapeLaTeX(dates)
	}
	return head + `\\`
}

func dateRange(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	case start == "":
		return end
	default:
		return start + " -- " + end
	}
}

func itemize(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "\\begin{itemize}\n" + strings.Join(items, "\n") + "\n\\end{itemize}"
}

func escapeJoin(items []string, sep string) string {
	escaped := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			escaped = append(escaped, EscapeLaTeX(trimmed))
		}
	}
	return strings.Join(escaped, sep)
}
