package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidInput marks a complaint the engine cannot analyze.
var ErrInvalidInput = errors.New("invalid input")

const (
	ResolutionResolved    = "Resolved"
	ResolutionNotResolved = "Not Resolved"
)

type CustomerInformation struct {
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

type ProductInformation struct {
	ModelNumber    string `json:"modelNumber"`
	SerialNumber   string `json:"serialNumber,omitempty"`
	DateOfPurchase string `json:"dateOfPurchase,omitempty"`
	Brand          string `json:"brand,omitempty"`
}

type WarrantyInformation struct {
	WarrantyStatus         string `json:"warrantyStatus,omitempty"`
	WarrantyExpirationDate string `json:"warrantyExpirationDate,omitempty"`
}

type ComplaintDetails struct {
	NatureOfProblem        []string `json:"natureOfProblem"`
	DetailedDescription    string   `json:"detailedDescription"`
	ProblemFirstOccurrence string   `json:"problemFirstOccurrence,omitempty"`
	Frequency              string   `json:"frequency,omitempty"`
	DateOfComplaint        string   `json:"dateOfComplaint,omitempty"`
	ResolutionStatus       string   `json:"resolutionStatus,omitempty"`
}

type EnvironmentalConditions struct {
	RoomTemperature            string `json:"roomTemperature,omitempty"`
	Ventilation                string `json:"ventilation,omitempty"`
	RecentEnvironmentalChanges string `json:"recentEnvironmentalChanges,omitempty"`
}

type ServiceRepresentativeNotes struct {
	InitialAssessment     string `json:"initialAssessment,omitempty"`
	ImmediateActionsTaken string `json:"immediateActionsTaken,omitempty"`
	Recommendations       string `json:"recommendations,omitempty"`
}

// ComplaintRecord is one customer-submitted complaint. The JSON shape matches
// the stored complaint documents.
type ComplaintRecord struct {
	ID                         int64                      `json:"id,omitempty"`
	CustomerInformation        CustomerInformation        `json:"customerInformation"`
	ProductInformation         ProductInformation         `json:"productInformation"`
	WarrantyInformation        WarrantyInformation        `json:"warrantyInformation"`
	ComplaintDetails           ComplaintDetails           `json:"complaintDetails"`
	EnvironmentalConditions    EnvironmentalConditions    `json:"environmentalConditions"`
	ServiceRepresentativeNotes ServiceRepresentativeNotes `json:"serviceRepresentativeNotes"`
}

// Validate checks the fields the engine needs to produce a meaningful result.
func (c ComplaintRecord) Validate() error {
	if strings.TrimSpace(c.ComplaintDetails.DetailedDescription) == "" {
		return errors.Join(ErrInvalidInput, errors.New("complaint has no detailed description"))
	}
	tags := 0
	for _, tag := range c.ComplaintDetails.NatureOfProblem {
		if strings.TrimSpace(tag) != "" {
			tags++
		}
	}
	if tags == 0 {
		return errors.Join(ErrInvalidInput, errors.New("complaint has no declared problem tags"))
	}
	return nil
}

type TechnicalAssessment struct {
	ComponentInspected []string `json:"componentInspected"`
	FaultDiagnosis     string   `json:"faultDiagnosis"`
	RootCause          string   `json:"rootCause"`
	SolutionProposed   string   `json:"solutionProposed,omitempty"`
}

// TechnicalNote is one technician visit tied to a complaint.
type TechnicalNote struct {
	ID                   int64               `json:"id,omitempty"`
	ComplaintID          int64               `json:"complaintId,omitempty"`
	TechnicianName       string              `json:"technicianName,omitempty"`
	VisitDate            string              `json:"visitDate,omitempty"`
	TechnicalAssessment  TechnicalAssessment `json:"technicalAssessment"`
	PartsReplaced        []string            `json:"partsReplaced,omitempty"`
	RepairDetails        string              `json:"repairDetails,omitempty"`
	FollowUpRequired     bool                `json:"followUpRequired"`
	FollowUpNotes        string              `json:"followUpNotes,omitempty"`
	CustomerSatisfaction string              `json:"customerSatisfaction,omitempty"`
	CreatedAt            time.Time           `json:"-"`
}

// DeriveResolutionStatus maps a freshly recorded note to the complaint's
// resolution status.
func DeriveResolutionStatus(note TechnicalNote) string {
	if note.FollowUpRequired {
		return ResolutionNotResolved
	}
	if strings.TrimSpace(note.TechnicalAssessment.SolutionProposed) != "" {
		return ResolutionResolved
	}
	return ResolutionNotResolved
}
