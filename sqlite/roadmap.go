package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/roadmap"
)

// SaveRoadmap saves a full roadmap (modules + prerequisites) in one
// transaction, replacing whatever was stored under the same ID.
// A roadmap without an ID gets an auto-generated UUID.
// The graph is validated first; an invalid roadmap leaves storage untouched.
func (s *Store) SaveRoadmap(ctx context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error) {
	out := r.Clone()
	out.FillDefaults()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	if err := roadmap.Validate(out); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("roadmap: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := nowMillis()
	var created, updated int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO roadmaps (id, user_id, title, description, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			description = excluded.description,
			goal = excluded.goal,
			updated_at = excluded.updated_at
		RETURNING created_at, updated_at`,
		out.ID, out.UserID, out.Title, out.Description, out.Goal, now, now,
	).Scan(&created, &updated)
	if err != nil {
		return nil, fmt.Errorf("roadmap: upsert roadmap: %w", err)
	}
	out.CreatedAt, out.UpdatedAt = fromMillis(created), fromMillis(updated)

	if _, err := tx.ExecContext(ctx, `DELETE FROM roadmap_prerequisites WHERE roadmap_id = ?`, out.ID); err != nil {
		return nil, fmt.Errorf("roadmap: delete prerequisites: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roadmap_modules WHERE roadmap_id = ?`, out.ID); err != nil {
		return nil, fmt.Errorf("roadmap: delete modules: %w", err)
	}

	for i, m := range out.Modules {
		resources, err := json.Marshal(m.Resources)
		if err != nil {
			return nil, fmt.Errorf("roadmap: encode resources of %s: %w", m.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roadmap_modules (roadmap_id, id, seq, label, description, status, progress, resources)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			out.ID, m.ID, i, m.Label, m.Description, string(m.Status), m.Progress, string(resources),
		); err != nil {
			return nil, fmt.Errorf("roadmap: insert module %s: %w", m.ID, err)
		}
	}

	for i, p := range out.Prerequisites {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roadmap_prerequisites (roadmap_id, source_id, target_id, seq)
			VALUES (?, ?, ?, ?)`,
			out.ID, p.Source, p.Target, i,
		); err != nil {
			return nil, fmt.Errorf("roadmap: insert prerequisite %s: %w", p.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("roadmap: commit: %w", err)
	}

	return out, nil
}

// GetRoadmap retrieves a full roadmap by its ID.
// Returns nil, nil if the roadmap does not exist.
func (s *Store) GetRoadmap(ctx context.Context, roadmapID string) (*roadmap.Roadmap, error) {
	r := &roadmap.Roadmap{ID: roadmapID}

	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, title, description, goal, created_at, updated_at FROM roadmaps WHERE id = ?`, roadmapID,
	).Scan(&r.UserID, &r.Title, &r.Description, &r.Goal, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("roadmap: get roadmap: %w", err)
	}
	r.CreatedAt, r.UpdatedAt = fromMillis(created), fromMillis(updated)

	if r.Modules, err = listModules(ctx, s.db, roadmapID); err != nil {
		return nil, err
	}
	if r.Prerequisites, err = listPrerequisites(ctx, s.db, roadmapID); err != nil {
		return nil, err
	}

	return r, nil
}

// ListRoadmaps returns summaries of every roadmap owned by userID, most
// recently updated first. Returns an empty slice (not nil) if none found.
func (s *Store) ListRoadmaps(ctx context.Context, userID string) ([]roadmap.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.description, r.goal, r.created_at, r.updated_at,
		       COUNT(m.id),
		       COALESCE(SUM(CASE WHEN m.status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM roadmaps r
		LEFT JOIN roadmap_modules m ON m.roadmap_id = r.id
		WHERE r.user_id = ?
		GROUP BY r.id
		ORDER BY r.updated_at DESC, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list roadmaps: %w", err)
	}
	defer rows.Close()

	out := []roadmap.Summary{}
	for rows.Next() {
		var (
			sum              roadmap.Summary
			created, updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.Goal,
			&created, &updated, &sum.Modules, &sum.Completed); err != nil {
			return nil, fmt.Errorf("roadmap: scan summary: %w", err)
		}
		sum.CreatedAt, sum.UpdatedAt = fromMillis(created), fromMillis(updated)
		sum.OverallProgress = roadmap.Percent(sum.Completed, sum.Modules)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: rows summaries: %w", err)
	}

	return out, nil
}

// DeleteRoadmap removes a roadmap together with its modules and
// prerequisites. No error if the roadmap doesn't exist.
func (s *Store) DeleteRoadmap(ctx context.Context, roadmapID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM roadmaps WHERE id = ?`, roadmapID); err != nil {
		return fmt.Errorf("roadmap: delete roadmap: %w", err)
	}
	return nil
}
