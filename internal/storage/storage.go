// Package storage persists session records to sqlite. It is a
// write-through cache behind the controller: single records are saved
// as they are produced and the full bundle is upserted at session end,
// so a crash mid-session loses at most the in-flight record.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joss/viva/internal/interview"
)

type Storage struct {
	db   *sql.DB
	path string
}

// Verify Storage implements interview.Store
var _ interview.Store = (*Storage)(nil)

func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "viva.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Storage{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		settings_json TEXT NOT NULL,
		rolling_summary TEXT NOT NULL DEFAULT '',
		summary_meta_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);

	CREATE TABLE IF NOT EXISTS transcript_segments (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		t0 INTEGER NOT NULL,
		t1 INTEGER NOT NULL,
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_segments_session ON transcript_segments(session_id, t1);

	CREATE TABLE IF NOT EXISTS ocr_results (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		text TEXT NOT NULL,
		confidence REAL NOT NULL,
		frame BLOB,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_ocr_session ON ocr_results(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		text TEXT NOT NULL,
		intent TEXT NOT NULL,
		difficulty INTEGER NOT NULL,
		grounding_json TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_answers_session ON answers(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS context_packets (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		transcript_delta TEXT NOT NULL,
		ocr_delta TEXT NOT NULL,
		screen_hint_json TEXT NOT NULL,
		active_question_id TEXT,
		last_answer_delta TEXT,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_packets_session ON context_packets(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS reports (
		session_id TEXT PRIMARY KEY,
		report_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, sess *interview.Session) error {
	settingsJSON, _ := json.Marshal(sess.Settings)
	var endedAt any
	if !sess.EndedAt.IsZero() {
		endedAt = sess.EndedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, status, started_at, ended_at, settings_json, rolling_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			ended_at = excluded.ended_at,
			rolling_summary = excluded.rolling_summary
	`, sess.ID, sess.Mode, sess.Status, sess.StartedAt, endedAt, settingsJSON, sess.RollingSummary)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id string) (*interview.Session, error) {
	sess, _, err := s.scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, mode, status, started_at, ended_at, settings_json, rolling_summary, summary_meta_json
		FROM sessions WHERE id = ?
	`, id))
	return sess, err
}

func (s *Storage) ListSessions(ctx context.Context, limit int) ([]*interview.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, status, started_at, ended_at, settings_json, rolling_summary, summary_meta_json
		FROM sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*interview.Session
	for rows.Next() {
		sess, _, err := s.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanSession(row rowScanner) (*interview.Session, interview.SummaryMeta, error) {
	var sess interview.Session
	var meta interview.SummaryMeta
	var endedAt sql.NullTime
	var settingsJSON string
	var metaJSON sql.NullString

	err := row.Scan(&sess.ID, &sess.Mode, &sess.Status, &sess.StartedAt, &endedAt, &settingsJSON, &sess.RollingSummary, &metaJSON)
	if err != nil {
		return nil, meta, err
	}

	if endedAt.Valid {
		sess.EndedAt = endedAt.Time
	}
	json.Unmarshal([]byte(settingsJSON), &sess.Settings)
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &meta)
	}
	return &sess, meta, nil
}

// Record operations

func (s *Storage) SaveSegment(ctx context.Context, sessionID string, seg interview.TranscriptSegment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO transcript_segments (id, session_id, t0, t1, text, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`, seg.ID, sessionID, seg.T0, seg.T1, seg.Text, seg.Source)
	return err
}

func (s *Storage) SaveOCR(ctx context.Context, sessionID string, o interview.OCRResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ocr_results (id, session_id, timestamp, text, confidence, frame)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, sessionID, o.Timestamp, o.Text, o.Confidence, o.Frame)
	return err
}

func (s *Storage) SaveQuestion(ctx context.Context, sessionID string, q interview.Question) error {
	groundingJSON, _ := json.Marshal(q.Grounding)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO questions (id, session_id, timestamp, text, intent, difficulty, grounding_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, q.ID, sessionID, q.Timestamp, q.Text, q.Intent, q.Difficulty, groundingJSON)
	return err
}

func (s *Storage) SaveAnswer(ctx context.Context, sessionID string, a interview.Answer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO answers (id, session_id, question_id, timestamp, text, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, sessionID, a.QuestionID, a.Timestamp, a.Text, a.Source)
	return err
}

func (s *Storage) savePacket(ctx context.Context, tx *sql.Tx, sessionID string, p interview.ContextPacket) error {
	hintJSON, _ := json.Marshal(p.ScreenHint)
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO context_packets (id, session_id, timestamp, transcript_delta, ocr_delta, screen_hint_json, active_question_id, last_answer_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, sessionID, p.Timestamp, p.TranscriptDelta, p.OCRDelta, hintJSON, p.ActiveQuestionID, p.LastAnswerDelta)
	return err
}

// SaveBundle upserts the whole session output in one transaction.
func (s *Storage) SaveBundle(ctx context.Context, b *interview.Bundle) error {
	if b == nil || b.Session == nil {
		return fmt.Errorf("empty bundle")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sess := b.Session
	settingsJSON, _ := json.Marshal(sess.Settings)
	metaJSON, _ := json.Marshal(b.SummaryMeta)
	var endedAt any
	if !sess.EndedAt.IsZero() {
		endedAt = sess.EndedAt
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, status, started_at, ended_at, settings_json, rolling_summary, summary_meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			ended_at = excluded.ended_at,
			rolling_summary = excluded.rolling_summary,
			summary_meta_json = excluded.summary_meta_json
	`, sess.ID, sess.Mode, sess.Status, sess.StartedAt, endedAt, settingsJSON, b.RollingSummary, metaJSON); err != nil {
		return err
	}

	for _, seg := range b.Transcript {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO transcript_segments (id, session_id, t0, t1, text, source)
			VALUES (?, ?, ?, ?, ?, ?)
		`, seg.ID, sess.ID, seg.T0, seg.T1, seg.Text, seg.Source); err != nil {
			return err
		}
	}
	for _, o := range b.OCR {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO ocr_results (id, session_id, timestamp, text, confidence, frame)
			VALUES (?, ?, ?, ?, ?, ?)
		`, o.ID, sess.ID, o.Timestamp, o.Text, o.Confidence, o.Frame); err != nil {
			return err
		}
	}
	for _, q := range b.Questions {
		groundingJSON, _ := json.Marshal(q.Grounding)
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO questions (id, session_id, timestamp, text, intent, difficulty, grounding_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, q.ID, sess.ID, q.Timestamp, q.Text, q.Intent, q.Difficulty, groundingJSON); err != nil {
			return err
		}
	}
	for _, a := range b.Answers {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO answers (id, session_id, question_id, timestamp, text, source)
			VALUES (?, ?, ?, ?, ?, ?)
		`, a.ID, sess.ID, a.QuestionID, a.Timestamp, a.Text, a.Source); err != nil {
			return err
		}
	}
	for _, p := range b.Packets {
		if err := s.savePacket(ctx, tx, sess.ID, p); err != nil {
			return err
		}
	}
	if b.Report != nil {
		reportJSON, _ := json.Marshal(b.Report)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reports (session_id, report_json, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
				report_json = excluded.report_json,
				created_at = excluded.created_at
		`, sess.ID, reportJSON, time.Now()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBundle reconstructs the full session output from the tables.
func (s *Storage) GetBundle(ctx context.Context, sessionID string) (*interview.Bundle, error) {
	sess, meta, err := s.scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, mode, status, started_at, ended_at, settings_json, rolling_summary, summary_meta_json
		FROM sessions WHERE id = ?
	`, sessionID))
	if err != nil {
		return nil, err
	}

	bundle := &interview.Bundle{
		Session:        sess,
		RollingSummary: sess.RollingSummary,
		SummaryMeta:    meta,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, t0, t1, text, source FROM transcript_segments
		WHERE session_id = ? ORDER BY t1 ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var seg interview.TranscriptSegment
		if err := rows.Scan(&seg.ID, &seg.T0, &seg.T1, &seg.Text, &seg.Source); err != nil {
			rows.Close()
			return nil, err
		}
		bundle.Transcript = append(bundle.Transcript, seg)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, timestamp, text, confidence, frame FROM ocr_results
		WHERE session_id = ? ORDER BY timestamp ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var o interview.OCRResult
		if err := rows.Scan(&o.ID, &o.Timestamp, &o.Text, &o.Confidence, &o.Frame); err != nil {
			rows.Close()
			return nil, err
		}
		bundle.OCR = append(bundle.OCR, o)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, timestamp, text, intent, difficulty, grounding_json FROM questions
		WHERE session_id = ? ORDER BY timestamp ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var q interview.Question
		var groundingJSON string
		if err := rows.Scan(&q.ID, &q.Timestamp, &q.Text, &q.Intent, &q.Difficulty, &groundingJSON); err != nil {
			rows.Close()
			return nil, err
		}
		json.Unmarshal([]byte(groundingJSON), &q.Grounding)
		bundle.Questions = append(bundle.Questions, q)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, question_id, timestamp, text, source FROM answers
		WHERE session_id = ? ORDER BY timestamp ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var a interview.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Timestamp, &a.Text, &a.Source); err != nil {
			rows.Close()
			return nil, err
		}
		bundle.Answers = append(bundle.Answers, a)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, timestamp, transcript_delta, ocr_delta, screen_hint_json, active_question_id, last_answer_delta
		FROM context_packets WHERE session_id = ? ORDER BY timestamp ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p interview.ContextPacket
		var hintJSON string
		var activeQID, lastAnswer sql.NullString
		if err := rows.Scan(&p.ID, &p.Timestamp, &p.TranscriptDelta, &p.OCRDelta, &hintJSON, &activeQID, &lastAnswer); err != nil {
			rows.Close()
			return nil, err
		}
		json.Unmarshal([]byte(hintJSON), &p.ScreenHint)
		p.ActiveQuestionID = activeQID.String
		p.LastAnswerDelta = lastAnswer.String
		bundle.Packets = append(bundle.Packets, p)
	}
	rows.Close()

	var reportJSON string
	err = s.db.QueryRowContext(ctx, `
		SELECT report_json FROM reports WHERE session_id = ?
	`, sessionID).Scan(&reportJSON)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		var report interview.Report
		if jerr := json.Unmarshal([]byte(reportJSON), &report); jerr == nil {
			bundle.Report = &report
		}
	}

	return bundle, nil
}

// DeleteSession removes a session and all dependent records.
func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transcript_segments", "ocr_results", "questions", "answers", "context_packets", "reports"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, table), id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
