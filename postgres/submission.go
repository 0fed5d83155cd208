package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meikuraledutech/roadmap"
)

const defaultSubmissionLimit = 50

// SaveSubmission records one sandbox run.
// If s.ID is empty, a UUID is auto-generated; a zero CreatedAt becomes now.
// Returns a copy with the stored ID and timestamp.
func (s *PGStore) SaveSubmission(ctx context.Context, sub *roadmap.Submission) (*roadmap.Submission, error) {
	out := *sub
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO code_submissions
			(id, user_id, problem_id, language, language_id, source_code, status,
			 stdout, stderr, compile_output, time_ms, memory_kb, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		out.ID, out.UserID, out.ProblemID, out.Language, out.LanguageID, out.SourceCode, out.Status,
		out.Stdout, out.Stderr, out.CompileOutput, out.TimeMs, out.MemoryKb, out.CreatedAt,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("roadmap: insert submission: %w", err)
	}

	return &out, nil
}

// ListSubmissions returns a user's most recent submissions, newest first.
// A non-positive limit falls back to 50.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListSubmissions(ctx context.Context, userID string, limit int) ([]roadmap.Submission, error) {
	if limit <= 0 {
		limit = defaultSubmissionLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, problem_id, language, language_id, source_code, status,
		       stdout, stderr, compile_output, time_ms, memory_kb, created_at
		FROM code_submissions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list submissions: %w", err)
	}
	defer rows.Close()

	out := []roadmap.Submission{}
	for rows.Next() {
		var sub roadmap.Submission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Language, &sub.LanguageID,
			&sub.SourceCode, &sub.Status, &sub.Stdout, &sub.Stderr, &sub.CompileOutput,
			&sub.TimeMs, &sub.MemoryKb, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("roadmap: scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: rows submissions: %w", err)
	}

	return out, nil
}
