package artifacts

import "time"

// Key is the cache identity of a generation request: recomputed fresh from
// inputs on every call, never stored as mutable state.
type Key struct {
	JobID       string
	TemplateID  string
	Fingerprint string
}

// String returns the canonical form used for per-key serialization.
func (k Key) String() string {
	return k.JobID + "/" + k.TemplateID + "/" + k.Fingerprint
}

// Artifact is the immutable set of rendered outputs for one key. Values are
// created whole by a successful render and never mutated afterwards; that is
// what makes concurrent cache reads safe. Callers must not modify the byte
// slices.
type Artifact struct {
	ID          string
	JobID       string
	TemplateID  string
	Fingerprint string
	PDF         []byte
	Latex       []byte
	Preview     []byte
	Pages       int
	CreatedAt   time.Time
}

// Key returns the artifact's cache key.
func (a Artifact) Key() Key {
	return Key{JobID: a.JobID, TemplateID: a.TemplateID, Fingerprint: a.Fingerprint}
}

// Record is the persisted index entry for an artifact; bytes live in the
// object store under the referenced keys.
type Record struct {
	ID          string
	JobID       string
	TemplateID  string
	Fingerprint string
	PDFKey      string
	LatexKey    string
	PreviewKey  string
	PDFSize     int64
	Pages       int
	CreatedAt   time.Time
}
