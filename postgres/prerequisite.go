package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/roadmap"
)

// AddPrerequisite appends a single prerequisite to a roadmap.
// Validates that both modules exist, the edge is new and it does not create
// a cycle. Returns ErrRoadmapNotFound if the roadmap doesn't exist.
func (s *PGStore) AddPrerequisite(ctx context.Context, roadmapID string, p roadmap.Prerequisite) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("roadmap: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the roadmap row so concurrent additions can't race past the
	// cycle check.
	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM roadmaps WHERE id = $1 FOR UPDATE`, roadmapID).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: %q", roadmap.ErrRoadmapNotFound, roadmapID)
		}
		return fmt.Errorf("roadmap: lock roadmap: %w", err)
	}

	// Fetch existing modules + prerequisites for validation.
	g := &roadmap.Roadmap{ID: roadmapID}
	if g.Modules, err = s.listModules(ctx, tx, roadmapID); err != nil {
		return err
	}
	if g.Prerequisites, err = s.listPrerequisites(ctx, tx, roadmapID); err != nil {
		return err
	}

	g.Prerequisites = append(g.Prerequisites, p)
	if err := roadmap.Validate(g); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO roadmap_prerequisites (roadmap_id, source_id, target_id, seq)
		SELECT $1, $2, $3, COALESCE(MAX(seq) + 1, 0) FROM roadmap_prerequisites WHERE roadmap_id = $1`,
		roadmapID, p.Source, p.Target,
	); err != nil {
		return fmt.Errorf("roadmap: insert prerequisite: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE roadmaps SET updated_at = NOW() WHERE id = $1`, roadmapID); err != nil {
		return fmt.Errorf("roadmap: touch roadmap: %w", err)
	}

	return tx.Commit(ctx)
}

// DeletePrerequisite removes a prerequisite from a roadmap.
// No error if it doesn't exist.
func (s *PGStore) DeletePrerequisite(ctx context.Context, roadmapID string, p roadmap.Prerequisite) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM roadmap_prerequisites WHERE roadmap_id = $1 AND source_id = $2 AND target_id = $3`,
		roadmapID, p.Source, p.Target,
	)
	if err != nil {
		return fmt.Errorf("roadmap: delete prerequisite: %w", err)
	}
	return nil
}

// listPrerequisites returns all prerequisites of a roadmap, ordered by
// insertion. Returns an empty slice (not nil) if none found.
func (s *PGStore) listPrerequisites(ctx context.Context, q querier, roadmapID string) ([]roadmap.Prerequisite, error) {
	rows, err := q.Query(ctx, `
		SELECT source_id, target_id FROM roadmap_prerequisites
		WHERE roadmap_id = $1 ORDER BY seq`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list prerequisites: %w", err)
	}
	defer rows.Close()

	prereqs := []roadmap.Prerequisite{}
	for rows.Next() {
		var p roadmap.Prerequisite
		if err := rows.Scan(&p.Source, &p.Target); err != nil {
			return nil, fmt.Errorf("roadmap: scan prerequisite: %w", err)
		}
		prereqs = append(prereqs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: rows prerequisites: %w", err)
	}

	return prereqs, nil
}
