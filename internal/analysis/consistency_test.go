package analysis

import (
	"testing"

	"complaintqa/internal/domain"
)

func TestCheckConsistency(t *testing.T) {
	tests := []struct {
		name             string
		customer         domain.Category
		technician       domain.Category
		hasTechnician    bool
		wantFinal        domain.Category
		wantInconsistent bool
	}{
		{"no technician signal", domain.DoorSealFailure, "", false, domain.DoorSealFailure, false},
		{"unknown customer", domain.UnknownIssue, domain.DrainageSystemClog, true, domain.DrainageSystemClog, false},
		{"unknown noise customer", domain.UnknownNoiseIssue, domain.RefrigerantLeak, true, domain.RefrigerantLeak, false},
		{"equal", domain.IceMakerFailure, domain.IceMakerFailure, true, domain.IceMakerFailure, false},
		{"related noise and fan", domain.NoiseIssue, domain.EvaporatorFanMalfunction, true, domain.EvaporatorFanMalfunction, false},
		{"related cooling and compressor", domain.TemperatureControlIssue, domain.CompressorNotCooling, true, domain.CompressorNotCooling, false},
		{"related panel and lighting", domain.DigitalPanelMalfunction, domain.LightingIssues, true, domain.LightingIssues, false},
		{"lighting versus fan", domain.LightingIssues, domain.EvaporatorFanMalfunction, true, domain.EvaporatorFanMalfunction, true},
		{"door versus drain", domain.DoorSealFailure, domain.DrainageSystemClog, true, domain.DrainageSystemClog, true},
		{"invalid customer label", domain.Category("bogus"), domain.DoorSealFailure, true, domain.DoorSealFailure, false},
		{"invalid technician label", domain.DoorSealFailure, domain.Category("bogus"), true, domain.DoorSealFailure, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := CheckConsistency(tc.customer, tc.technician, tc.hasTechnician)
			if v.Final != tc.wantFinal || v.Inconsistent != tc.wantInconsistent {
				t.Fatalf("CheckConsistency(%s, %s) = final %s inconsistent %t, want %s %t",
					tc.customer, tc.technician, v.Final, v.Inconsistent, tc.wantFinal, tc.wantInconsistent)
			}
			if !v.Final.Valid() {
				t.Fatalf("final category %q is not a taxonomy member", v.Final)
			}
		})
	}
}

func TestRelatedPairsAreSymmetric(t *testing.T) {
	checked := 0
	for _, a := range domain.Categories() {
		for _, b := range domain.Categories() {
			if !Related(a, b) {
				continue
			}
			if !Related(b, a) {
				t.Fatalf("Related(%s, %s) holds but not the reverse", a, b)
			}
			if CheckConsistency(a, b, true).Inconsistent || CheckConsistency(b, a, true).Inconsistent {
				t.Fatalf("related pair %s/%s reported inconsistent", a, b)
			}
			checked++
		}
	}
	if checked == 0 {
		t.Fatal("expected at least one related pair")
	}
}

func TestNoTechnicianSignalNeverInconsistent(t *testing.T) {
	for _, c := range domain.Categories() {
		v := CheckConsistency(c, "", false)
		if v.Inconsistent || v.Final != c {
			t.Fatalf("customer %s without technician: final %s inconsistent %t", c, v.Final, v.Inconsistent)
		}
	}
}
