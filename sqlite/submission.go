package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/roadmap"
)

const defaultSubmissionLimit = 50

// SaveSubmission records one sandbox run.
// If the ID is empty, a UUID is auto-generated; a zero CreatedAt becomes now.
func (s *Store) SaveSubmission(ctx context.Context, sub *roadmap.Submission) (*roadmap.Submission, error) {
	out := *sub
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	created := nowMillis()
	if !out.CreatedAt.IsZero() {
		created = toMillis(out.CreatedAt)
	}
	out.CreatedAt = fromMillis(created)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO code_submissions
			(id, user_id, problem_id, language, language_id, source_code, status,
			 stdout, stderr, compile_output, time_ms, memory_kb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.UserID, out.ProblemID, out.Language, out.LanguageID, out.SourceCode, out.Status,
		out.Stdout, out.Stderr, out.CompileOutput, out.TimeMs, out.MemoryKb, created,
	)
	if err != nil {
		return nil, fmt.Errorf("roadmap: insert submission: %w", err)
	}

	return &out, nil
}

// ListSubmissions returns a user's most recent submissions, newest first.
// A non-positive limit falls back to 50.
func (s *Store) ListSubmissions(ctx context.Context, userID string, limit int) ([]roadmap.Submission, error) {
	if limit <= 0 {
		limit = defaultSubmissionLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, problem_id, language, language_id, source_code, status,
		       stdout, stderr, compile_output, time_ms, memory_kb, created_at
		FROM code_submissions
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list submissions: %w", err)
	}
	defer rows.Close()

	out := []roadmap.Submission{}
	for rows.Next() {
		var (
			sub                           roadmap.Submission
			stdout, stderr, compileOutput sql.NullString
			timeMs, memoryKb              sql.NullInt64
			created                       int64
		)
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Language, &sub.LanguageID,
			&sub.SourceCode, &sub.Status, &stdout, &stderr, &compileOutput,
			&timeMs, &memoryKb, &created); err != nil {
			return nil, fmt.Errorf("roadmap: scan submission: %w", err)
		}
		sub.Stdout = nullString(stdout)
		sub.Stderr = nullString(stderr)
		sub.CompileOutput = nullString(compileOutput)
		sub.TimeMs = nullInt(timeMs)
		sub.MemoryKb = nullInt(memoryKb)
		sub.CreatedAt = fromMillis(created)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: rows submissions: %w", err)
	}

	return out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
