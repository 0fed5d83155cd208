package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/roadmap"
)

// UpdateModule applies the set fields of u to a single module and bumps the
// roadmap's updated_at.
// Returns ErrModuleNotFound if the module doesn't exist.
func (s *Store) UpdateModule(ctx context.Context, roadmapID, moduleID string, u roadmap.ModuleUpdate) error {
	if err := roadmap.ValidateUpdate(u); err != nil {
		return err
	}

	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("roadmap: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE roadmap_modules
		SET status = COALESCE(?, status), progress = COALESCE(?, progress)
		WHERE roadmap_id = ? AND id = ?`,
		status, u.Progress, roadmapID, moduleID,
	)
	if err != nil {
		return fmt.Errorf("roadmap: update module: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("roadmap: update module: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", roadmap.ErrModuleNotFound, moduleID)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE roadmaps SET updated_at = ? WHERE id = ?`, nowMillis(), roadmapID); err != nil {
		return fmt.Errorf("roadmap: touch roadmap: %w", err)
	}

	return tx.Commit()
}

// listModules returns all modules of a roadmap, ordered by insertion.
func listModules(ctx context.Context, q querier, roadmapID string) ([]roadmap.Module, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, label, description, status, progress, resources
		FROM roadmap_modules WHERE roadmap_id = ? ORDER BY seq`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list modules: %w", err)
	}
	defer rows.Close()

	modules := []roadmap.Module{}
	for rows.Next() {
		var (
			m         roadmap.Module
			status    string
			resources string
		)
		if err := rows.Scan(&m.ID, &m.Label, &m.Description, &status, &m.Progress, &resources); err != nil {
			return nil, fmt.Errorf("roadmap: scan module: %w", err)
		}
		m.Status = roadmap.Status(status)
		if err := json.Unmarshal([]byte(resources), &m.Resources); err != nil {
			return nil, fmt.Errorf("roadmap: decode resources of %s: %w", m.ID, err)
		}
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
