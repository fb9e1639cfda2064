package postgres

import (
	"context"
	"fmt"
)

// PageExistsAtPath reports whether a published content page exists at the
// given relative path in the group's primary site. Consulted by the strict
// collision policy before any mapping write.
func (s *Store) PageExistsAtPath(ctx context.Context, groupID int64, relPath string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM pages
		   WHERE group_id = $1 AND rel_path = $2 AND published
		 )`,
		groupID, relPath,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("page exists %q: %w", relPath, err)
	}
	return exists, nil
}
