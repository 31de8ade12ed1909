package analysis

import (
	"reflect"
	"strings"
	"testing"

	"complaintqa/internal/domain"
)

func TestSynthesizeConsistent(t *testing.T) {
	v := CheckConsistency(domain.LightingIssues, domain.LightingIssues, true)
	n := Synthesize(v, "RF-2200")

	if !strings.Contains(n.FinalOpinion, "RF-2200") {
		t.Fatalf("expected model number in opinion, got %q", n.FinalOpinion)
	}
	if n.Recommendations[0] != "Perform detailed diagnostic tests focusing on the lighting issues" {
		t.Fatalf("unexpected first recommendation %q", n.Recommendations[0])
	}
	for _, r := range n.Recommendations {
		if r == educateCustomer {
			t.Fatalf("educate item must only appear for inconsistent verdicts: %v", n.Recommendations)
		}
	}
	if n.RootCause != defaultRootCause || n.SolutionImplemented != defaultSolution || n.SystemicAssessment != defaultSystemic {
		t.Fatalf("expected default root cause/solution/systemic text, got %+v", n)
	}
}

func TestSynthesizeGeneralInconsistency(t *testing.T) {
	v := CheckConsistency(domain.DoorSealFailure, domain.DrainageSystemClog, true)
	n := Synthesize(v, "RF-2200")

	if !strings.Contains(n.FinalOpinion, "(drainage system clog)") || !strings.Contains(n.FinalOpinion, "(door seal failure)") {
		t.Fatalf("expected both labels in opinion, got %q", n.FinalOpinion)
	}
	if !strings.HasSuffix(n.Recommendations[0], "with special attention to both reported and discovered issues") {
		t.Fatalf("unexpected first recommendation %q", n.Recommendations[0])
	}
	if last := n.Recommendations[len(n.Recommendations)-1]; last != educateCustomer {
		t.Fatalf("expected educate item last, got %q", last)
	}
}

func TestSynthesizeSharedCircuitPair(t *testing.T) {
	v := CheckConsistency(domain.LightingIssues, domain.EvaporatorFanMalfunction, true)
	n := Synthesize(v, "RF-2200")

	if !strings.Contains(n.TechnicalDiagnosis, "shares a circuit board with the lighting system") {
		t.Fatalf("expected shared-circuit explanation, got %q", n.TechnicalDiagnosis)
	}
	if len(n.Recommendations) != 7 {
		t.Fatalf("expected 7 recommendations, got %d: %v", len(n.Recommendations), n.Recommendations)
	}
	if n.Recommendations[6] != educateCustomer {
		t.Fatalf("expected educate item last, got %q", n.Recommendations[6])
	}
}

func TestSynthesizeMissingModel(t *testing.T) {
	n := Synthesize(CheckConsistency(domain.IceMakerFailure, "", false), "  ")
	if !strings.Contains(n.FinalOpinion, unknownModel) {
		t.Fatalf("expected placeholder model, got %q", n.FinalOpinion)
	}
}

func TestSynthesizeCoversTaxonomy(t *testing.T) {
	for _, c := range domain.Categories() {
		n := Synthesize(CheckConsistency(c, "", false), "M1")
		if n.FinalOpinion == "" || n.TechnicalDiagnosis == "" || n.RootCause == "" || len(n.Recommendations) == 0 {
			t.Fatalf("incomplete narrative for %s: %+v", c, n)
		}
		if strings.Contains(n.FinalOpinion, "{") || strings.Contains(n.TechnicalDiagnosis, "{") {
			t.Fatalf("unreplaced placeholder for %s: %+v", c, n)
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	v := CheckConsistency(domain.DoorSealFailure, domain.RefrigerantLeak, true)
	if !reflect.DeepEqual(Synthesize(v, "X"), Synthesize(v, "X")) {
		t.Fatal("expected identical narratives for identical input")
	}
}
