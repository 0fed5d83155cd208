package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/roadmap"
)

// SaveRoadmap saves a full roadmap (modules + prerequisites) in one
// transaction, replacing whatever was stored under the same ID.
// A roadmap without an ID gets an auto-generated UUID.
// The graph is validated first; an invalid roadmap leaves storage untouched.
// Returns a copy of the roadmap with ID and timestamps filled in.
func (s *PGStore) SaveRoadmap(ctx context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error) {
	out := r.Clone()
	out.FillDefaults()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	if err := roadmap.Validate(out); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("roadmap: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO roadmaps (id, user_id, title, description, goal)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			goal = EXCLUDED.goal,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		out.ID, out.UserID, out.Title, out.Description, out.Goal,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("roadmap: upsert roadmap: %w", err)
	}

	// Replace semantics: prerequisites go first, they reference modules.
	if _, err := tx.Exec(ctx, `DELETE FROM roadmap_prerequisites WHERE roadmap_id = $1`, out.ID); err != nil {
		return nil, fmt.Errorf("roadmap: delete prerequisites: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM roadmap_modules WHERE roadmap_id = $1`, out.ID); err != nil {
		return nil, fmt.Errorf("roadmap: delete modules: %w", err)
	}

	batch := &pgx.Batch{}
	for i, m := range out.Modules {
		batch.Queue(`
			INSERT INTO roadmap_modules (roadmap_id, id, seq, label, description, status, progress, resources)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			out.ID, m.ID, i, m.Label, m.Description, string(m.Status), m.Progress, m.Resources,
		)
	}
	for i, p := range out.Prerequisites {
		batch.Queue(`
			INSERT INTO roadmap_prerequisites (roadmap_id, source_id, target_id, seq)
			VALUES ($1, $2, $3, $4)`,
			out.ID, p.Source, p.Target, i,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return nil, fmt.Errorf("roadmap: insert graph: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("roadmap: insert graph: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("roadmap: commit: %w", err)
	}

	return out, nil
}

// GetRoadmap retrieves a full roadmap (modules + prerequisites) by its ID.
// Modules and prerequisites come back in insertion order.
// Returns nil, nil if the roadmap does not exist.
func (s *PGStore) GetRoadmap(ctx context.Context, roadmapID string) (*roadmap.Roadmap, error) {
	r := &roadmap.Roadmap{ID: roadmapID}

	err := s.db.QueryRow(ctx,
		`SELECT user_id, title, description, goal, created_at, updated_at FROM roadmaps WHERE id = $1`, roadmapID,
	).Scan(&r.UserID, &r.Title, &r.Description, &r.Goal, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("roadmap: get roadmap: %w", err)
	}

	r.Modules, err = s.listModules(ctx, s.db, roadmapID)
	if err != nil {
		return nil, err
	}
	r.Prerequisites, err = s.listPrerequisites(ctx, s.db, roadmapID)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// ListRoadmaps returns summaries of every roadmap owned by userID, most
// recently updated first. Returns an empty slice (not nil) if none found.
func (s *PGStore) ListRoadmaps(ctx context.Context, userID string) ([]roadmap.Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.title, r.description, r.goal, r.created_at, r.updated_at,
		       COUNT(m.id),
		       COUNT(m.id) FILTER (WHERE m.status = 'completed')
		FROM roadmaps r
		LEFT JOIN roadmap_modules m ON m.roadmap_id = r.id
		WHERE r.user_id = $1
		GROUP BY r.id
		ORDER BY r.updated_at DESC, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("roadmap: list roadmaps: %w", err)
	}
	defer rows.Close()

	out := []roadmap.Summary{}
	for rows.Next() {
		var sum roadmap.Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.Goal,
			&sum.CreatedAt, &sum.UpdatedAt, &sum.Modules, &sum.Completed); err != nil {
			return nil, fmt.Errorf("roadmap: scan summary: %w", err)
		}
		sum.OverallProgress = roadmap.Percent(sum.Completed, sum.Modules)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: rows summaries: %w", err)
	}

	return out, nil
}

// DeleteRoadmap removes a roadmap; modules and prerequisites are
// cascade-deleted by the DB. No error if the roadmap doesn't exist.
func (s *PGStore) DeleteRoadmap(ctx context.Context, roadmapID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM roadmaps WHERE id = $1`, roadmapID); err != nil {
		return fmt.Errorf("roadmap: delete roadmap: %w", err)
	}
	return nil
}
