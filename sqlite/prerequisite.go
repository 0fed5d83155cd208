package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meikuraledutech/roadmap"
)

// AddPrerequisite appends a single prerequisite to a roadmap after checking
// endpoints, duplicates and acyclicity against the stored graph.
// Returns ErrRoadmapNotFound if the roadmap doesn't exist.
func (s *Store) AddPrerequisite(ctx context.Context, roadmapID string, p roadmap.Prerequisite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("roadmap: begin tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM roadmaps WHERE id = ?`, roadmapID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %q", roadmap.ErrRoadmapNotFound, roadmapID)
		}
		return fmt.Errorf("roadmap: find roadmap: %w", err)
	}

	g := &roadmap.Roadmap{ID: roadmapID}
	if g.Modules, err = listModules(ctx, tx, roadmapID); err != nil {
		return err
	}
	if g.Prerequisites, err = listPrerequisites(ctx, tx, roadmapID); err != nil {
		return err
	}

	g.Prerequisites = append(g.Prerequisites, p)
	if err := roadmap.Validate(g); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO roadmap_prerequisites (roadmap_id, source_id, target_id, seq)
		SELECT ?, ?, ?, COALESCE(MAX(seq) + 1, 0) FROM roadmap_prerequisites WHERE roadmap_id = ?`,
		roadmapID, p.Source, p.Target, roadmapID,
	); err != nil {
		return fmt.Errorf("roadmap: insert prerequisite: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE roadmaps SET updated_at = ? WHERE id = ?`, nowMillis(), roadmapID); err != nil {
		return fmt.Errorf("roadmap: touch roadmap: %w", err)
	}

	return tx.Commit()
}

// DeletePrerequisite removes a prerequisite from a roadmap.
// No error if it doesn't exist.
func (s *Store) DeletePrerequisite(ctx context.Context, roadmapID string, p roadmap.Prerequisite) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM roadmap_prerequisites WHERE roadmap_id = ? AND source_id = ? AND target_id = ?`,
		roadmapID, p.Source, p.Target,
	)
	if err != nil {
		return fmt.Errorf("roadmap: delete prerequisite: %w", err)
	}
	return nil
}

// listPrerequisites returns all prerequisites of a roadmap, ordered by
// insertion.
func listPrerequisites(ctx context.Context, q querier, roadmapID string) ([]roadmap.Prerequisite, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT source_id, target_id FROM roadmap_prerequisites
		WHERE roadmap_id = ? ORDER BY seq`, roadmapID)
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
