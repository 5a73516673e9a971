package fuzzy

import "testing"

func TestRatio_Identical(t *testing.T) {
	if got := Ratio("Cats have five toes.", "Cats have five toes."); got != 100 {
		t.Errorf("Ratio(identical) = %d, want 100", got)
	}
	if got := Ratio("", ""); got != 100 {
		t.Errorf("Ratio(empty, empty) = %d, want 100", got)
	}
}

func TestRatio_Unrelated(t *testing.T) {
	got := Ratio(
		"Cats have five toes on their front paws.",
		"Quantum processors run at millikelvin temperatures.",
	)
	if got >= 50 {
		t.Errorf("Ratio(unrelated) = %d, want well below 50", got)
	}
}

func TestRatio_CaseInsensitive(t *testing.T) {
	got := Ratio("HELLO WORLD", "hello world")
	if got != 100 {
		t.Errorf("Ratio(case variants) = %d, want 100", got)
	}
}

func TestTooSimilar(t *testing.T) {
	existing := []string{"Cats have five toes on their front paws."}

	// Exact duplicates score 100 and are rejected at any threshold <= 100.
	if !TooSimilar("Cats have five toes on their front paws.", existing, 100) {
		t.Error("exact duplicate accepted at threshold 100")
	}
	if !TooSimilar("Cats have five toes on their front paws.", existing, 85) {
		t.Error("exact duplicate accepted at threshold 85")
	}

	// Near-duplicates trip the default threshold.
	if !TooSimilar("Cats have five toes on their front paws!", existing, 85) {
		t.Error("near-duplicate accepted at threshold 85")
	}

	// Unrelated text passes.
	if TooSimilar("Honey never spoils when stored sealed.", existing, 85) {
		t.Error("unrelated candidate rejected at threshold 85")
	}

	// Empty comparison set never rejects.
	if TooSimilar("anything", nil, 0) {
		t.Error("empty comparison set rejected a candidate")
	}
}
