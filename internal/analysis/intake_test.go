package analysis

import (
	"reflect"
	"testing"

	"complaintqa/internal/domain"
)

func TestCheckIntake(t *testing.T) {
	tests := []struct {
		name           string
		tags           []string
		diagnosis      string
		rootCause      string
		wantConsistent bool
		wantChecked    []string
	}{
		{"lighting matched", []string{"Lighting Issues"}, "Replaced LED strip", "", true, []string{"lighting"}},
		{"lighting matched by root cause", []string{"Lighting Issues"}, "Inspected unit", "Loose wiring harness", true, []string{"lighting"}},
		{"lighting unmatched", []string{"Lighting Issues"}, "Door hinge loose", "", false, []string{"lighting"}},
		{"any group suffices", []string{"Noise", "Water Leak"}, "Drain tube blocked", "", true, []string{"noise", "water"}},
		{"cooling by temp tag", []string{"Temperature Fluctuation"}, "Thermostat stuck", "", true, []string{"cooling"}},
		{"no applicable group", []string{"Other"}, "Anything at all", "", true, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := domain.TechnicalNote{TechnicalAssessment: domain.TechnicalAssessment{
				FaultDiagnosis: tc.diagnosis,
				RootCause:      tc.rootCause,
			}}
			got := CheckIntake(tc.tags, n)
			if got.Consistent != tc.wantConsistent {
				t.Fatalf("Consistent = %t, want %t", got.Consistent, tc.wantConsistent)
			}
			if !reflect.DeepEqual(got.Checked, tc.wantChecked) {
				t.Fatalf("Checked = %v, want %v", got.Checked, tc.wantChecked)
			}
		})
	}
}
