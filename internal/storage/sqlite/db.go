// Package sqlite stores complaints, technician notes and analysis results as
// JSON documents in a local SQLite database.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"complaintqa/internal/domain"
)

// ErrNotFound is returned when a complaint or analysis does not exist.
var ErrNotFound = errors.New("not found")

const sqliteTimeLayout = "2006-01-02 15:04:05"

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	// Concurrent reprocess workers share this handle. One connection keeps
	// their read-then-write transactions from deadlocking on lock upgrade.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS complaints (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		data       TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS technical_notes (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		complaint_id INTEGER NOT NULL REFERENCES complaints(id),
		data         TEXT NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_notes_complaint ON technical_notes(complaint_id);

	CREATE TABLE IF NOT EXISTS analysis_history (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		complaint_id         INTEGER NOT NULL,
		note_id              INTEGER NOT NULL DEFAULT 0,
		rule_based_category  TEXT NOT NULL,
		conflicting_category TEXT DEFAULT '',
		llm_category         TEXT NOT NULL,
		llm_provider         TEXT DEFAULT '',
		llm_model            TEXT DEFAULT '',
		analyzed_at          DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ah_complaint ON analysis_history(complaint_id);
	CREATE INDEX IF NOT EXISTS idx_ah_date ON analysis_history(analyzed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	// Migration: add analysis cache column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('technical_notes') WHERE name = 'analysis'`).Scan(&colCount)
	if colCount == 0 {
		if _, err := db.Exec(`ALTER TABLE technical_notes ADD COLUMN analysis TEXT DEFAULT ''`); err != nil {
			return nil, fmt.Errorf("add analysis column: %w", err)
		}
	}

	return db, nil
}

// InsertComplaint stores c and returns its id. A positive c.ID is kept, which
// lets imports preserve the ids of existing documents.
func InsertComplaint(db *sql.DB, c domain.ComplaintRecord) (int64, error) {
	id := c.ID
	c.ID = 0
	data, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("marshal complaint: %w", err)
	}

	var res sql.Result
	if id > 0 {
		res, err = db.Exec(`INSERT INTO complaints (id, data) VALUES (?, ?)`, id, string(data))
	} else {
		res, err = db.Exec(`INSERT INTO complaints (data) VALUES (?)`, string(data))
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getComplaint(q queryRower, id int64) (domain.ComplaintRecord, error) {
	var data string
	err := q.QueryRow(`SELECT data FROM complaints WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ComplaintRecord{}, fmt.Errorf("complaint %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.ComplaintRecord{}, err
	}
	var c domain.ComplaintRecord
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return domain.ComplaintRecord{}, fmt.Errorf("decode complaint %d: %w", id, err)
	}
	c.ID = id
	return c, nil
}

func GetComplaint(db *sql.DB, id int64) (domain.ComplaintRecord, error) {
	return getComplaint(db, id)
}

// InsertTechnicalNote stores n and updates the complaint's resolution status
// in the same transaction.
func InsertTechnicalNote(db *sql.DB, n domain.TechnicalNote) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	c, err := getComplaint(tx, n.ComplaintID)
	if err != nil {
		return 0, err
	}

	complaintID := n.ComplaintID
	n.ID, n.ComplaintID = 0, 0
	data, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("marshal note: %w", err)
	}
	res, err := tx.Exec(`INSERT INTO technical_notes (complaint_id, data) VALUES (?, ?)`, complaintID, string(data))
	if err != nil {
		return 0, err
	}
	noteID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	c.ComplaintDetails.ResolutionStatus = domain.DeriveResolutionStatus(n)
	c.ID = 0
	cdata, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("marshal complaint: %w", err)
	}
	if _, err := tx.Exec(`UPDATE complaints SET data = ? WHERE id = ?`, string(cdata), complaintID); err != nil {
		return 0, err
	}
	return noteID, tx.Commit()
}

// GetTechnicalNotes returns the complaint's notes oldest first, so the last
// element is the most recently submitted.
func GetTechnicalNotes(db *sql.DB, complaintID int64) ([]domain.TechnicalNote, error) {
	rows, err := db.Query(
		`SELECT id, data, created_at FROM technical_notes WHERE complaint_id = ? ORDER BY id`,
		complaintID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.TechnicalNote
	for rows.Next() {
		var (
			id        int64
			data      string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &data, &createdAt); err != nil {
			return nil, err
		}
		var n domain.TechnicalNote
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			return nil, fmt.Errorf("decode note %d: %w", id, err)
		}
		n.ID, n.ComplaintID, n.CreatedAt = id, complaintID, createdAt
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ListComplaintIDsWithNotes returns every complaint that has at least one
// technician note, in id order.
func ListComplaintIDsWithNotes(db *sql.DB) ([]int64, error) {
	rows, err := db.Query(`SELECT DISTINCT complaint_id FROM technical_notes ORDER BY complaint_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AnalysisRecord is one row of the analysis audit trail.
type AnalysisRecord struct {
	ID                  int64
	ComplaintID         int64
	NoteID              int64
	RuleBasedCategory   domain.Category
	ConflictingCategory domain.Category
	LLMCategory         domain.Category
	LLMProvider         string
	LLMModel            string
	AnalyzedAt          time.Time
}

// SaveAnalysis caches res on the complaint's newest note and appends an
// audit row. Complaints without notes only get the audit row.
func SaveAnalysis(db *sql.DB, complaintID int64, res domain.AnalysisResult, provider, model string) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var noteID int64
	err = tx.QueryRow(`SELECT id FROM technical_notes WHERE complaint_id = ? ORDER BY id DESC LIMIT 1`, complaintID).Scan(&noteID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		noteID = 0
	case err != nil:
		return err
	default:
		if _, err := tx.Exec(`UPDATE technical_notes SET analysis = ? WHERE id = ?`, string(data), noteID); err != nil {
			return err
		}
	}

	conflicting := ""
	if res.ConflictingCategory != nil {
		conflicting = string(*res.ConflictingCategory)
	}
	if !res.LLMAvailable() {
		provider, model = "", ""
	}
	if _, err := tx.Exec(
		`INSERT INTO analysis_history
		 (complaint_id, note_id, rule_based_category, conflicting_category, llm_category, llm_provider, llm_model)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		complaintID, noteID, string(res.RuleBasedCategory), conflicting, string(res.LLMCategory), provider, model,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// GetLatestAnalysis returns the analysis cached on the complaint's newest
// analysed note.
func GetLatestAnalysis(db *sql.DB, complaintID int64) (domain.AnalysisResult, error) {
	var data string
	err := db.QueryRow(
		`SELECT analysis FROM technical_notes
		 WHERE complaint_id = ? AND analysis IS NOT NULL AND analysis != ''
		 ORDER BY id DESC LIMIT 1`,
		complaintID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisResult{}, fmt.Errorf("analysis for complaint %d: %w", complaintID, ErrNotFound)
	}
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	var res domain.AnalysisResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("decode analysis: %w", err)
	}
	return res, nil
}

func GetAnalysisHistory(db *sql.DB, complaintID int64) ([]AnalysisRecord, error) {
	rows, err := db.Query(
		`SELECT id, complaint_id, note_id, rule_based_category, conflicting_category,
		        llm_category, llm_provider, llm_model, analyzed_at
		 FROM analysis_history WHERE complaint_id = ? ORDER BY id`,
		complaintID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var r AnalysisRecord
		if err := rows.Scan(
			&r.ID, &r.ComplaintID, &r.NoteID, &r.RuleBasedCategory, &r.ConflictingCategory,
			&r.LLMCategory, &r.LLMProvider, &r.LLMModel, &r.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AgreementStats summarizes how often the external classifier agreed with
// the rule-based category.
type AgreementStats struct {
	Total        int
	Agreed       int
	Disagreed    int
	Unavailable  int
	Inconsistent int
}

func GetAgreementStats(db *sql.DB, since time.Time) (AgreementStats, error) {
	var s AgreementStats
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN llm_category = rule_based_category THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN llm_category != ? AND llm_category != rule_based_category THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN llm_category = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN conflicting_category != '' THEN 1 ELSE 0 END), 0)
		 FROM analysis_history WHERE analyzed_at >= ?`,
		string(domain.LLMUnavailable), string(domain.LLMUnavailable), since.UTC().Format(sqliteTimeLayout),
	).Scan(&s.Total, &s.Agreed, &s.Disagreed, &s.Unavailable, &s.Inconsistent)
	return s, err
}
