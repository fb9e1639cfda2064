package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ideai-platform/sitetree/internal/domain/site"
)

// GetFlags returns the group's feature flags. An absent record means the
// feature is disabled, not an error.
func (s *Store) GetFlags(ctx context.Context, groupID int64) (site.Flags, error) {
	var f site.Flags
	err := s.pool.QueryRow(ctx,
		`SELECT enabled, collision_mode FROM group_flags WHERE group_id = $1`,
		groupID,
	).Scan(&f.Enabled, &f.CollisionMode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return site.Flags{Enabled: false, CollisionMode: site.CollisionModeStrict}, nil
		}
		return site.Flags{}, fmt.Errorf("get flags for group %d: %w", groupID, err)
	}
	return f, nil
}

func (s *Store) SetFlags(ctx context.Context, groupID int64, f site.Flags) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO group_flags (group_id, enabled, collision_mode, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (group_id)
		 DO UPDATE SET enabled = $2, collision_mode = $3, updated_at = now()`,
		groupID, f.Enabled, f.CollisionMode)
	if err != nil {
		return fmt.Errorf("set flags for group %d: %w", groupID, err)
	}
	return nil
}
