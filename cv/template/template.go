package template

// SlotKind describes the semantic type of a placeholder slot.
type SlotKind string

const (
	// SlotText is a single escaped text value.
	SlotText SlotKind = "text"
	// SlotBullets is a flat list rendered as an itemized block.
	SlotBullets SlotKind = "bullets"
	// SlotEntries is a list of dated entries (experience, education, projects).
	// Date ranges are rendered inside each entry.
	SlotEntries SlotKind = "entries"
	// SlotImage is a binary image reference. No shipped template uses one yet;
	// the kind exists so template schemas can declare photo slots.
	SlotImage SlotKind = "image"
)

// Slot is one named placeholder in a template's schema.
type Slot struct {
	Name     string
	Kind     SlotKind
	Required bool
}

// Template is an immutable document layout definition. ID never changes once
// registered; Schema is the complete contract the binder must satisfy.
type Template struct {
	ID        string
	Name      string
	Schema    []Slot
	Source    string
	Thumbnail []byte
}

// Meta is the listing view of a template.
type Meta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Slot names shared by the shipped templates. The binder resolves each name
// against a CVContent field.
const (
	SlotName          = "NAME"
	SlotTitle         = "TITLE"
	SlotContact       = "CONTACT"
	SlotSummary       = "SUMMARY"
	SlotExperience    = "EXPERIENCE"
	SlotEducation     = "EDUCATION"
	SlotSkills        = "SKILLS"
	SlotProjects      = "PROJECTS"
	SlotAwards        = "AWARDS"
	SlotPresentations = "PRESENTATIONS"
	SlotInterests     = "INTERESTS"
)
