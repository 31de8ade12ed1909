package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"complaintqa/internal/domain"
)

func writeGlossary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write glossary: %v", err)
	}
	return path
}

func TestGlossaryOverridesBuiltInRules(t *testing.T) {
	path := writeGlossary(t, `terms:
  - phrase: crisper drawer
    category: DOOR_SEAL_FAILURE
`)
	g, err := LoadGlossary(path)
	if err != nil {
		t.Fatalf("LoadGlossary: %v", err)
	}

	tags := []string{"Other"}
	desc := "The crisper drawer rattles"
	if got := ExtractCustomerCategory(tags, desc); got != domain.UnknownIssue {
		t.Fatalf("expected built-in rules to find nothing, got %s", got)
	}
	if got := NewCustomerExtractor(g).Extract(tags, desc); got != domain.DoorSealFailure {
		t.Fatalf("expected glossary match DOOR_SEAL_FAILURE, got %s", got)
	}
}

func TestLoadGlossaryRejectsUnknownCategory(t *testing.T) {
	path := writeGlossary(t, `terms:
  - phrase: crisper drawer
    category: DRAWER_PROBLEM
`)
	if _, err := LoadGlossary(path); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestLoadGlossaryRejectsUnmatchablePhrase(t *testing.T) {
	for _, phrase := range []string{`""`, `"!!!"`, `"  --  "`} {
		path := writeGlossary(t, "terms:\n  - phrase: "+phrase+"\n    category: DOOR_SEAL_FAILURE\n")
		if _, err := LoadGlossary(path); err == nil {
			t.Fatalf("expected error for phrase %s", phrase)
		}
	}
	if err := AppendTerm(filepath.Join(t.TempDir(), "glossary.yaml"), "!!!", domain.DoorSealFailure); err == nil {
		t.Fatal("expected AppendTerm to reject a phrase with no words")
	}
}

func TestAppendTermSkipsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	if err := AppendTerm(path, "Crisper Drawer", domain.DoorSealFailure); err != nil {
		t.Fatalf("AppendTerm: %v", err)
	}
	if err := AppendTerm(path, "crisper  drawer", domain.DoorSealFailure); err != nil {
		t.Fatalf("AppendTerm duplicate: %v", err)
	}
	g, err := LoadGlossary(path)
	if err != nil {
		t.Fatalf("LoadGlossary: %v", err)
	}
	if len(g.Terms) != 1 {
		t.Fatalf("expected 1 term, got %d", len(g.Terms))
	}
}
