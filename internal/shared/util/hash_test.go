package util

import "testing"

func TestHashKey(t *testing.T) {
	id := "job-12345"
	got := HashKey(id)
	if got != HashKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestFingerprintStable(t *testing.T) {
	inputs := map[string]any{
		"content":  map[string]string{"name": "A"},
		"template": "cv_classic_v1",
		"context":  "",
	}
	first, err := Fingerprint(inputs)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, err := Fingerprint(inputs)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable fingerprint, got %s and %s", first, second)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := map[string]any{"template": "cv_classic_v1", "context": ""}
	changed := map[string]any{"template": "cv_classic_v1", "context": "emphasize Go"}

	first, err := Fingerprint(base)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, err := Fingerprint(changed)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct fingerprints for different context")
	}
}
