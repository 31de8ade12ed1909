package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"complaintqa/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "complaintqa-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleComplaint() domain.ComplaintRecord {
	return domain.ComplaintRecord{
		CustomerInformation: domain.CustomerInformation{FullName: "Dana Smith"},
		ProductInformation:  domain.ProductInformation{ModelNumber: "RF-2200"},
		ComplaintDetails: domain.ComplaintDetails{
			NatureOfProblem:     []string{"Door Seal"},
			DetailedDescription: "Door does not shut properly",
		},
	}
}

func sampleNote(complaintID int64, diagnosis string) domain.TechnicalNote {
	return domain.TechnicalNote{
		ComplaintID:    complaintID,
		TechnicianName: "Tech One",
		TechnicalAssessment: domain.TechnicalAssessment{
			FaultDiagnosis:   diagnosis,
			SolutionProposed: "Replaced gasket",
		},
	}
}

func TestInitDBAddsAnalysisColumn(t *testing.T) {
	db := newTestDB(t)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('technical_notes') WHERE name = 'analysis'`).Scan(&count); err != nil {
		t.Fatalf("query pragma_table_info failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected analysis column to exist, count=%d", count)
	}
}

func TestComplaintRoundTrip(t *testing.T) {
	db := newTestDB(t)

	id, err := InsertComplaint(db, sampleComplaint())
	if err != nil {
		t.Fatalf("InsertComplaint: %v", err)
	}
	got, err := GetComplaint(db, id)
	if err != nil {
		t.Fatalf("GetComplaint: %v", err)
	}
	if got.ID != id || got.ComplaintDetails.DetailedDescription != "Door does not shut properly" {
		t.Fatalf("unexpected complaint %+v", got)
	}

	if _, err := GetComplaint(db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertComplaintKeepsExplicitID(t *testing.T) {
	db := newTestDB(t)
	c := sampleComplaint()
	c.ID = 42
	id, err := InsertComplaint(db, c)
	if err != nil {
		t.Fatalf("InsertComplaint: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
}

func TestInsertTechnicalNoteUpdatesResolution(t *testing.T) {
	db := newTestDB(t)
	cid, _ := InsertComplaint(db, sampleComplaint())

	if _, err := InsertTechnicalNote(db, sampleNote(cid, "Door gasket torn")); err != nil {
		t.Fatalf("InsertTechnicalNote: %v", err)
	}
	c, _ := GetComplaint(db, cid)
	if c.ComplaintDetails.ResolutionStatus != domain.ResolutionResolved {
		t.Fatalf("expected Resolved, got %q", c.ComplaintDetails.ResolutionStatus)
	}

	followUp := sampleNote(cid, "Hinge misaligned")
	followUp.FollowUpRequired = true
	if _, err := InsertTechnicalNote(db, followUp); err != nil {
		t.Fatalf("InsertTechnicalNote: %v", err)
	}
	c, _ = GetComplaint(db, cid)
	if c.ComplaintDetails.ResolutionStatus != domain.ResolutionNotResolved {
		t.Fatalf("expected Not Resolved, got %q", c.ComplaintDetails.ResolutionStatus)
	}

	notes, err := GetTechnicalNotes(db, cid)
	if err != nil {
		t.Fatalf("GetTechnicalNotes: %v", err)
	}
	if len(notes) != 2 || notes[1].TechnicalAssessment.FaultDiagnosis != "Hinge misaligned" {
		t.Fatalf("expected notes oldest first, got %+v", notes)
	}
	if notes[0].ComplaintID != cid || notes[0].ID == 0 {
		t.Fatalf("expected ids to be populated, got %+v", notes[0])
	}
}

func TestInsertTechnicalNoteUnknownComplaint(t *testing.T) {
	db := newTestDB(t)
	if _, err := InsertTechnicalNote(db, sampleNote(77, "x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListComplaintIDsWithNotes(t *testing.T) {
	db := newTestDB(t)
	a, _ := InsertComplaint(db, sampleComplaint())
	_, _ = InsertComplaint(db, sampleComplaint())
	c, _ := InsertComplaint(db, sampleComplaint())
	_, _ = InsertTechnicalNote(db, sampleNote(c, "one"))
	_, _ = InsertTechnicalNote(db, sampleNote(a, "two"))
	_, _ = InsertTechnicalNote(db, sampleNote(a, "three"))

	ids, err := ListComplaintIDsWithNotes(db)
	if err != nil {
		t.Fatalf("ListComplaintIDsWithNotes: %v", err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != c {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	db := newTestDB(t)
	cid, _ := InsertComplaint(db, sampleComplaint())
	_, _ = InsertTechnicalNote(db, sampleNote(cid, "first"))
	_, _ = InsertTechnicalNote(db, sampleNote(cid, "second"))

	if _, err := GetLatestAnalysis(db, cid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any analysis, got %v", err)
	}

	customer := domain.DoorSealFailure
	res := domain.AnalysisResult{
		FinalOpinion:        "opinion",
		RuleBasedCategory:   domain.DrainageSystemClog,
		ConflictingCategory: &customer,
		LLMCategory:         domain.DrainageSystemClog,
		Recommendations:     []string{"a", "b"},
	}
	if err := SaveAnalysis(db, cid, res, "openai", "gpt-4o"); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, err := GetLatestAnalysis(db, cid)
	if err != nil {
		t.Fatalf("GetLatestAnalysis: %v", err)
	}
	if got.RuleBasedCategory != domain.DrainageSystemClog || got.ConflictingCategory == nil || *got.ConflictingCategory != customer {
		t.Fatalf("unexpected analysis %+v", got)
	}

	var cachedOn int64
	if err := db.QueryRow(`SELECT id FROM technical_notes WHERE analysis != '' `).Scan(&cachedOn); err != nil {
		t.Fatalf("query cached note: %v", err)
	}
	notes, _ := GetTechnicalNotes(db, cid)
	if cachedOn != notes[1].ID {
		t.Fatalf("expected analysis cached on newest note %d, got %d", notes[1].ID, cachedOn)
	}

	history, err := GetAnalysisHistory(db, cid)
	if err != nil {
		t.Fatalf("GetAnalysisHistory: %v", err)
	}
	if len(history) != 1 || history[0].LLMProvider != "openai" || history[0].ConflictingCategory != customer {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestGetAgreementStats(t *testing.T) {
	db := newTestDB(t)
	cid, _ := InsertComplaint(db, sampleComplaint())
	_, _ = InsertTechnicalNote(db, sampleNote(cid, "first"))

	customer := domain.DoorSealFailure
	results := []domain.AnalysisResult{
		{RuleBasedCategory: domain.DoorSealFailure, LLMCategory: domain.DoorSealFailure},
		{RuleBasedCategory: domain.DoorSealFailure, LLMCategory: domain.IceMakerFailure},
		{RuleBasedCategory: domain.DrainageSystemClog, ConflictingCategory: &customer, LLMCategory: domain.LLMUnavailable},
	}
	for _, r := range results {
		if err := SaveAnalysis(db, cid, r, "anthropic", "m"); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}

	s, err := GetAgreementStats(db, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetAgreementStats: %v", err)
	}
	want := AgreementStats{Total: 3, Agreed: 1, Disagreed: 1, Unavailable: 1, Inconsistent: 1}
	if s != want {
		t.Fatalf("stats = %+v, want %+v", s, want)
	}
}
