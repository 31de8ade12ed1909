package review

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"complaintqa/internal/analysis"
	"complaintqa/internal/domain"
	"complaintqa/internal/storage/sqlite"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []domain.AnalysisResult
	err    error
}

func (n *recordingNotifier) NotifyInconsistency(_ context.Context, _ domain.ComplaintRecord, res domain.AnalysisResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, res)
	return n.err
}

func newTestService(t *testing.T, notifier Notifier) (*Service, *sql.DB) {
	t.Helper()
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "review-test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, analysis.NewEngine(analysis.EngineConfig{}), Options{Notifier: notifier}), db
}

func lightingComplaint() domain.ComplaintRecord {
	return domain.ComplaintRecord{
		ProductInformation: domain.ProductInformation{ModelNumber: "RF-2200"},
		ComplaintDetails: domain.ComplaintDetails{
			NatureOfProblem:     []string{"Lighting Issues"},
			DetailedDescription: "The interior lights flicker and sometimes go dark",
		},
	}
}

func fanNote(complaintID int64) domain.TechnicalNote {
	return domain.TechnicalNote{
		ComplaintID: complaintID,
		TechnicalAssessment: domain.TechnicalAssessment{
			ComponentInspected: []string{"Fan Motor"},
			FaultDiagnosis:     "Evaporator fan motor drawing excessive current",
			RootCause:          "Shorted winding loading the shared lighting circuit",
			SolutionProposed:   "Replaced fan motor",
		},
	}
}

func TestRecordNoteAnalyzesAndAlerts(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, db := newTestService(t, notifier)
	cid, _ := sqlite.InsertComplaint(db, lightingComplaint())

	out, err := svc.RecordNote(context.Background(), fanNote(cid), false)
	if err != nil {
		t.Fatalf("RecordNote: %v", err)
	}
	if !out.Intake.Consistent {
		t.Fatalf("expected intake to accept the lighting-circuit root cause, got %+v", out.Intake)
	}
	if out.Analysis.RuleBasedCategory != domain.EvaporatorFanMalfunction || !out.Analysis.Inconsistent() {
		t.Fatalf("unexpected analysis %+v", out.Analysis)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(notifier.alerts))
	}

	cached, err := sqlite.GetLatestAnalysis(db, cid)
	if err != nil {
		t.Fatalf("GetLatestAnalysis: %v", err)
	}
	if cached.FinalOpinion != out.Analysis.FinalOpinion {
		t.Fatal("expected cached analysis to match returned analysis")
	}
	c, _ := sqlite.GetComplaint(db, cid)
	if c.ComplaintDetails.ResolutionStatus != domain.ResolutionResolved {
		t.Fatalf("expected Resolved, got %q", c.ComplaintDetails.ResolutionStatus)
	}
}

func TestRecordNoteRejectsInconsistentUnlessConfirmed(t *testing.T) {
	svc, db := newTestService(t, nil)
	cid, _ := sqlite.InsertComplaint(db, lightingComplaint())
	note := domain.TechnicalNote{
		ComplaintID: cid,
		TechnicalAssessment: domain.TechnicalAssessment{
			FaultDiagnosis: "Door gasket torn",
		},
	}

	_, err := svc.RecordNote(context.Background(), note, false)
	if !errors.Is(err, ErrInconsistentNote) {
		t.Fatalf("expected ErrInconsistentNote, got %v", err)
	}
	notes, _ := sqlite.GetTechnicalNotes(db, cid)
	if len(notes) != 0 {
		t.Fatalf("rejected note must not be stored, got %d notes", len(notes))
	}

	out, err := svc.RecordNote(context.Background(), note, true)
	if err != nil {
		t.Fatalf("RecordNote confirmed: %v", err)
	}
	if out.NoteID == 0 || out.Analysis.RuleBasedCategory != domain.DoorSealFailure {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestRecordNoteUnknownComplaint(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.RecordNote(context.Background(), fanNote(404), true); !errors.Is(err, sqlite.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertFailureIsNotFatal(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("slack down")}
	svc, db := newTestService(t, notifier)
	cid, _ := sqlite.InsertComplaint(db, lightingComplaint())
	if _, err := sqlite.InsertTechnicalNote(db, fanNote(cid)); err != nil {
		t.Fatalf("InsertTechnicalNote: %v", err)
	}
	if _, err := svc.AnalyzeComplaint(context.Background(), cid); err != nil {
		t.Fatalf("AnalyzeComplaint: %v", err)
	}
}

func TestLatestAnalysisAnalyzesOnDemand(t *testing.T) {
	svc, db := newTestService(t, nil)
	cid, _ := sqlite.InsertComplaint(db, lightingComplaint())

	res, err := svc.LatestAnalysis(context.Background(), cid)
	if err != nil {
		t.Fatalf("LatestAnalysis: %v", err)
	}
	if res.RuleBasedCategory != domain.LightingIssues || res.Inconsistent() {
		t.Fatalf("unexpected analysis %+v", res)
	}
	history, _ := sqlite.GetAnalysisHistory(db, cid)
	if len(history) != 1 {
		t.Fatalf("expected one audit row, got %d", len(history))
	}
}

func TestImport(t *testing.T) {
	svc, db := newTestService(t, nil)
	bad := domain.ComplaintRecord{}
	n, err := svc.ImportComplaints([]domain.ComplaintRecord{lightingComplaint(), bad})
	if n != 1 || !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected 1 import and an invalid-input error, got %d, %v", n, err)
	}

	ids, _ := db.Query(`SELECT id FROM complaints`)
	var cid int64
	for ids.Next() {
		_ = ids.Scan(&cid)
	}
	_ = ids.Close()

	n, err = svc.ImportNotes([]domain.TechnicalNote{fanNote(cid), fanNote(cid + 100)})
	if n != 1 || !errors.Is(err, sqlite.ErrNotFound) {
		t.Fatalf("expected 1 note import and a not-found error, got %d, %v", n, err)
	}
}

func TestReprocessAndStats(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, db := newTestService(t, notifier)
	first, _ := sqlite.InsertComplaint(db, lightingComplaint())
	_, _ = sqlite.InsertComplaint(db, lightingComplaint())
	if _, err := sqlite.InsertTechnicalNote(db, fanNote(first)); err != nil {
		t.Fatalf("InsertTechnicalNote: %v", err)
	}

	s, err := svc.Reprocess(context.Background())
	if err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if s.Total != 1 || s.Processed != 1 || s.Inconsistent != 1 || s.LLMUnavailable != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}

	stats, err := svc.Stats(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 || stats.Inconsistent != 1 || stats.Unavailable != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestReprocessConcurrentWorkersShareDatabase(t *testing.T) {
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "review-concurrent.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	const complaints = 60
	for i := 0; i < complaints; i++ {
		cid, err := sqlite.InsertComplaint(db, lightingComplaint())
		if err != nil {
			t.Fatalf("InsertComplaint: %v", err)
		}
		if _, err := sqlite.InsertTechnicalNote(db, fanNote(cid)); err != nil {
			t.Fatalf("InsertTechnicalNote: %v", err)
		}
	}

	for _, workers := range []int{4, 8} {
		svc := NewService(db, analysis.NewEngine(analysis.EngineConfig{}), Options{ReprocessConcurrency: workers})
		s, err := svc.Reprocess(context.Background())
		if err != nil {
			t.Fatalf("Reprocess with %d workers: %v", workers, err)
		}
		if s.Total != complaints || s.Processed != complaints || len(s.Errors) != 0 {
			t.Fatalf("workers=%d: expected every complaint processed, got total=%d processed=%d errors=%v",
				workers, s.Total, s.Processed, s.Errors)
		}
	}

	stats, err := sqlite.GetAgreementStats(db, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetAgreementStats: %v", err)
	}
	if stats.Total != 2*complaints {
		t.Fatalf("expected %d audit rows, got %d", 2*complaints, stats.Total)
	}
}
