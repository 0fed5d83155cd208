package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/roadmap"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UpdateModule applies the set fields of u to a single module and bumps the
// roadmap's updated_at.
// Returns ErrModuleNotFound if the module doesn't exist.
func (s *PGStore) UpdateModule(ctx context.Context, roadmapID, moduleID string, u roadmap.ModuleUpdate) error {
	if err := roadmap.ValidateUpdate(u); err != nil {
		return err
	}

	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("roadmap: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE roadmap_modules
		SET status = COALESCE($1, status), progress = COALESCE($2, progress)
		WHERE roadmap_id = $3 AND id = $4`,
		status, u.Progress, roadmapID, moduleID,
	)
	if err != nil {
		return fmt.Errorf("roadmap: update module: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", roadmap.ErrModuleNotFound, moduleID)
	}

	if _, err := tx.Exec(ctx, `UPDATE roadmaps SET updated_at = NOW() WHERE id = $1`, roadmapID); err != nil {
		return fmt.Errorf("roadmap: touch roadmap: %w", err)
	}

	return tx.Commit(ctx)
}

// listModules returns all modules of a roadmap, ordered by insertion.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) listModules(ctx context.Context, q querier, roadmapID string) ([]roadmap.Module, error) {
	rows, err := q.Query(ctx, `
		SELECT id, label, description, status, progress, resources
		FROM roadmap_modules WHERE roadmap_id = $1 ORDER BY seq`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list modules: %w", err)
	}
	defer rows.Close()

	modules := []roadmap.Module{}
	for rows.Next() {
		var (
			m      roadmap.Module
			status string
		)
		if err := rows.Scan(&m.ID, &m.Label, &m.Description, &status, &m.Progress, &m.Resources); err != nil {
			return nil, fmt.Errorf("roadmap: scan module: %w", err)
		}
		m.Status = roadmap.Status(status)
		if m.Resources == nil {
			m.Resources = []string{}
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: rows modules: %w", err)
	}

	return modules, nil
}
