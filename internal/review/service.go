// Package review ties storage, the analysis engine and notifications together
// for the operations exposed on the CLI and in Slack.
package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"complaintqa/internal/analysis"
	"complaintqa/internal/domain"
	"complaintqa/internal/reprocess"
	"complaintqa/internal/storage/sqlite"
)

// ErrInconsistentNote is returned by RecordNote when the diagnosis does not
// relate to any declared problem tag and the caller has not confirmed it.
var ErrInconsistentNote = errors.New("technical assessment appears inconsistent with the customer complaint")

// Notifier is told about analyses whose technician finding contradicts the
// customer report.
type Notifier interface {
	NotifyInconsistency(ctx context.Context, complaint domain.ComplaintRecord, res domain.AnalysisResult) error
}

type Options struct {
	Notifier    Notifier
	LLMProvider string
	LLMModel    string
	// ReprocessConcurrency bounds parallel analyses in Reprocess. Defaults to 1.
	ReprocessConcurrency int
}

type Service struct {
	db          *sql.DB
	engine      *analysis.Engine
	notifier    Notifier
	provider    string
	model       string
	concurrency int
}

func NewService(db *sql.DB, engine *analysis.Engine, opts Options) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		notifier:    opts.Notifier,
		provider:    opts.LLMProvider,
		model:       opts.LLMModel,
		concurrency: max(1, opts.ReprocessConcurrency),
	}
}

// Reprocess re-analyses every complaint that has technician notes.
func (s *Service) Reprocess(ctx context.Context) (reprocess.Summary, error) {
	return reprocess.RunAll(ctx, s.db, s, s.concurrency)
}

// Stats summarizes cross-validator agreement for analyses since the given time.
func (s *Service) Stats(since time.Time) (sqlite.AgreementStats, error) {
	return sqlite.GetAgreementStats(s.db, since)
}

func (s *Service) History(complaintID int64) ([]sqlite.AnalysisRecord, error) {
	if _, err := sqlite.GetComplaint(s.db, complaintID); err != nil {
		return nil, err
	}
	return sqlite.GetAnalysisHistory(s.db, complaintID)
}

// AnalyzeComplaint runs the engine over the complaint and all of its notes,
// caches the result and sends an alert when the two sides disagree.
func (s *Service) AnalyzeComplaint(ctx context.Context, complaintID int64) (domain.AnalysisResult, error) {
	complaint, err := sqlite.GetComplaint(s.db, complaintID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	notes, err := sqlite.GetTechnicalNotes(s.db, complaintID)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("load notes for complaint %d: %w", complaintID, err)
	}

	res, err := s.engine.Analyze(ctx, complaint, notes)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if err := sqlite.SaveAnalysis(s.db, complaintID, res, s.provider, s.model); err != nil {
		return res, fmt.Errorf("save analysis for complaint %d: %w", complaintID, err)
	}

	if res.Inconsistent() && s.notifier != nil {
		if err := s.notifier.NotifyInconsistency(ctx, complaint, res); err != nil {
			log.Printf("inconsistency alert error (non-fatal) complaint=%d: %v", complaintID, err)
		}
	}
	return res, nil
}

// NoteOutcome reports what happened to a submitted note.
type NoteOutcome struct {
	NoteID   int64
	Intake   analysis.IntakeCheck
	Analysis domain.AnalysisResult
}

// RecordNote checks a new technician note against the complaint tags, stores
// it and re-analyzes the complaint. An inconsistent note is rejected with
// ErrInconsistentNote unless confirmed is set.
func (s *Service) RecordNote(ctx context.Context, note domain.TechnicalNote, confirmed bool) (NoteOutcome, error) {
	complaint, err := sqlite.GetComplaint(s.db, note.ComplaintID)
	if err != nil {
		return NoteOutcome{}, err
	}

	out := NoteOutcome{Intake: analysis.CheckIntake(complaint.ComplaintDetails.NatureOfProblem, note)}
	if !out.Intake.Consistent {
		if !confirmed {
			return out, ErrInconsistentNote
		}
		log.Printf("note intake inconsistent but confirmed complaint=%d checked=%v", note.ComplaintID, out.Intake.Checked)
	}

	out.NoteID, err = sqlite.InsertTechnicalNote(s.db, note)
	if err != nil {
		return out, fmt.Errorf("store note: %w", err)
	}
	out.Analysis, err = s.AnalyzeComplaint(ctx, note.ComplaintID)
	if err != nil {
		return out, err
	}
	return out, nil
}

// LatestAnalysis returns the cached result, analysing on demand when none
// has been stored yet.
func (s *Service) LatestAnalysis(ctx context.Context, complaintID int64) (domain.AnalysisResult, error) {
	res, err := sqlite.GetLatestAnalysis(s.db, complaintID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return s.AnalyzeComplaint(ctx, complaintID)
	}
	return res, err
}

// ImportComplaints stores complaint documents. Records that fail validation
// are skipped and counted in the returned error.
func (s *Service) ImportComplaints(complaints []domain.ComplaintRecord) (int, error) {
	var errs []error
	imported := 0
	for i, c := range complaints {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("complaint %d: %w", i+1, err))
			continue
		}
		if _, err := sqlite.InsertComplaint(s.db, c); err != nil {
			errs = append(errs, fmt.Errorf("complaint %d: %w", i+1, err))
			continue
		}
		imported++
	}
	log.Printf("import complaints total=%d imported=%d errors=%d", len(complaints), imported, len(errs))
	return imported, errors.Join(errs...)
}

// ImportNotes stores technician notes without the intake check or analysis;
// run a reprocess afterwards.
func (s *Service) ImportNotes(notes []domain.TechnicalNote) (int, error) {
	var errs []error
	imported := 0
	for i, n := range notes {
		if _, err := sqlite.InsertTechnicalNote(s.db, n); err != nil {
			errs = append(errs, fmt.Errorf("note %d: %w", i+1, err))
			continue
		}
		imported++
	}
	log.Printf("import notes total=%d imported=%d errors=%d", len(notes), imported, len(errs))
	return imported, errors.Join(errs...)
}
