package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{in: "NOISY_GAS_INJECTION", want: NoisyGasInjection, ok: true},
		{in: "noisy gas injection", want: NoisyGasInjection, ok: true},
		{in: "  **Compressor Not Cooling**  ", want: CompressorNotCooling, ok: true},
		{in: "evaporator-fan-malfunction", want: EvaporatorFanMalfunction, ok: true},
		{in: "UNKNOWN ISSUE", want: UnknownIssue, ok: true},
		{in: "other", want: Other, ok: true},
		{in: "broken fridge", ok: false},
		{in: "unavailable", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCategoriesAreAllValidAndUnique(t *testing.T) {
	seen := make(map[Category]bool)
	for _, c := range Categories() {
		if !c.Valid() {
			t.Fatalf("category %q not valid", c)
		}
		if seen[c] {
			t.Fatalf("duplicate category %q", c)
		}
		seen[c] = true
	}
	if !seen[Other] || !seen[UnknownIssue] {
		t.Fatal("expected OTHER and UNKNOWN_ISSUE sentinels in taxonomy")
	}
	if LLMUnavailable.Valid() {
		t.Fatal("unavailable marker must not be a taxonomy member")
	}
}

func TestCategoryReliability(t *testing.T) {
	if UnknownIssue.Reliable() || UnknownNoiseIssue.Reliable() {
		t.Fatal("unknown labels must be unreliable")
	}
	if !LightingIssues.Reliable() {
		t.Fatal("LIGHTING_ISSUES must be reliable")
	}
	if Category("NOT_A_LABEL").Reliable() {
		t.Fatal("unknown strings must not be reliable")
	}
}

func TestCategoryFamilies(t *testing.T) {
	if !CompressorNotCooling.HasFamily(FamilyCooling) || !CompressorNotCooling.HasFamily(FamilyCompressor) {
		t.Fatalf("unexpected families for %s: %v", CompressorNotCooling, CompressorNotCooling.Families())
	}
	if DoorSealFailure.HasFamily(FamilyNoise) {
		t.Fatal("DOOR_SEAL_FAILURE must not be in the noise family")
	}
}

func TestDisplayCategory(t *testing.T) {
	r := AnalysisResult{RuleBasedCategory: EvaporatorFanMalfunction}
	if got := r.DisplayCategory(); got != "EVAPORATOR FAN MALFUNCTION" {
		t.Fatalf("unexpected display: %q", got)
	}
	customer := LightingIssues
	r.ConflictingCategory = &customer
	want := "EVAPORATOR FAN MALFUNCTION (INCONSISTENT WITH CUSTOMER REPORT OF LIGHTING ISSUES)"
	if got := r.DisplayCategory(); got != want {
		t.Fatalf("DisplayCategory() = %q, want %q", got, want)
	}
	if !r.Inconsistent() {
		t.Fatal("expected Inconsistent() when a conflicting category is set")
	}
}

func TestLLMAgreement(t *testing.T) {
	r := AnalysisResult{RuleBasedCategory: DoorSealFailure, LLMCategory: LLMUnavailable}
	if r.LLMAvailable() || r.LLMAgrees() {
		t.Fatal("unavailable LLM category must not count as available or agreeing")
	}
	r.LLMCategory = DoorSealFailure
	if !r.LLMAgrees() {
		t.Fatal("expected agreement for identical labels")
	}
}

func TestComplaintValidate(t *testing.T) {
	valid := ComplaintRecord{ComplaintDetails: ComplaintDetails{
		NatureOfProblem:     []string{"Unusual Noise"},
		DetailedDescription: "It hums loudly.",
	}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noDesc := valid
	noDesc.ComplaintDetails.DetailedDescription = "   "
	if err := noDesc.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty description, got %v", err)
	}

	noTags := valid
	noTags.ComplaintDetails.NatureOfProblem = []string{" "}
	if err := noTags.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank tags, got %v", err)
	}
}

func TestDeriveResolutionStatus(t *testing.T) {
	tests := []struct {
		name string
		note TechnicalNote
		want string
	}{
		{
			name: "solution without follow-up",
			note: TechnicalNote{TechnicalAssessment: TechnicalAssessment{SolutionProposed: "Replace gasket"}},
			want: ResolutionResolved,
		},
		{
			name: "follow-up required",
			note: TechnicalNote{FollowUpRequired: true, TechnicalAssessment: TechnicalAssessment{SolutionProposed: "Order part"}},
			want: ResolutionNotResolved,
		},
		{
			name: "no solution",
			note: TechnicalNote{},
			want: ResolutionNotResolved,
		},
	}
	for _, tt := range tests {
		if got := DeriveResolutionStatus(tt.note); got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}
