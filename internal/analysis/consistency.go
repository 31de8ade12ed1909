package analysis

import "complaintqa/internal/domain"

// Verdict is the outcome of comparing the customer and technician signals.
type Verdict struct {
	Customer      domain.Category
	Technician    domain.Category // empty when HasTechnician is false
	HasTechnician bool
	Final         domain.Category
	Inconsistent  bool
}

// relatedFamilies lists family pairs that describe one physical fault seen
// from two vantage points. Both directions of each pair are checked.
var relatedFamilies = [][2]domain.Family{
	{domain.FamilyNoise, domain.FamilyFan},
	{domain.FamilyCooling, domain.FamilyCompressor},
	{domain.FamilyLighting, domain.FamilyPanel},
}

// Related reports whether a and b fall in the same related-pair bucket.
func Related(a, b domain.Category) bool {
	for _, pair := range relatedFamilies {
		if a.HasFamily(pair[0]) && b.HasFamily(pair[1]) {
			return true
		}
		if a.HasFamily(pair[1]) && b.HasFamily(pair[0]) {
			return true
		}
	}
	return false
}

// CheckConsistency decides the stored category and whether the two sides
// genuinely disagree. hasTechnician is false when no note produced a label.
func CheckConsistency(customer, technician domain.Category, hasTechnician bool) Verdict {
	v := Verdict{Customer: customer, Technician: technician, HasTechnician: hasTechnician}
	if !customer.Valid() {
		v.Customer = domain.UnknownIssue
	}

	switch {
	case !hasTechnician || !technician.Valid():
		v.Technician = ""
		v.HasTechnician = false
		v.Final = v.Customer
	case !v.Customer.Reliable():
		v.Final = technician
	case v.Customer == technician:
		v.Final = technician
	default:
		v.Final = technician
		v.Inconsistent = !Related(v.Customer, technician)
	}
	return v
}
