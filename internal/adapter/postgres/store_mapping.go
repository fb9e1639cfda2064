package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
)

// ReplaceMapping performs the upsert as one transaction: remove any row for
// the same site, remove any row at the same path, insert the new row. Two
// concurrent upserts targeting the same path serialize on the unique
// constraint, so at most one mapping per path survives.
func (s *Store) ReplaceMapping(ctx context.Context, m site.PathMapping) (*site.PathMapping, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("replace mapping: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM site_path_mappings WHERE group_id = $1 AND site_id = $2`,
		m.GroupID, m.SiteID); err != nil {
		return nil, fmt.Errorf("replace mapping: delete by site: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM site_path_mappings WHERE group_id = $1 AND path = $2`,
		m.GroupID, m.Path); err != nil {
		return nil, fmt.Errorf("replace mapping: delete by path: %w", err)
	}

	var out site.PathMapping
	err = tx.QueryRow(ctx,
		`INSERT INTO site_path_mappings (group_id, site_id, path)
		 VALUES ($1, $2, $3)
		 RETURNING id, group_id, site_id, path, created_at`,
		m.GroupID, m.SiteID, m.Path,
	).Scan(&out.ID, &out.GroupID, &out.SiteID, &out.Path, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("replace mapping: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("replace mapping: commit: %w", err)
	}
	return &out, nil
}

func (s *Store) GetMappingBySite(ctx context.Context, groupID, siteID int64) (*site.PathMapping, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, group_id, site_id, path, created_at
		 FROM site_path_mappings WHERE group_id = $1 AND site_id = $2`,
		groupID, siteID)

	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get mapping for site %d: %w", siteID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get mapping for site %d: %w", siteID, err)
	}
	return &m, nil
}

// ResolvePath finds the longest registered path that prefixes requestPath.
// Stored paths keep their trailing slash, so "/ab/" never matches "/abc/".
// The root mapping is excluded: it would prefix every request, and the
// platform's default resolution already covers the primary site.
func (s *Store) ResolvePath(ctx context.Context, groupID int64, requestPath string) (*site.Resolution, error) {
	var res site.Resolution
	err := s.pool.QueryRow(ctx,
		`SELECT site_id, path
		 FROM site_path_mappings
		 WHERE group_id = $1
		   AND path <> '/'
		   AND left($2, length(path)) = path
		 ORDER BY length(path) DESC
		 LIMIT 1`,
		groupID, requestPath,
	).Scan(&res.SiteID, &res.Path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("resolve %q: %w", requestPath, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve %q: %w", requestPath, err)
	}
	return &res, nil
}

func (s *Store) ListMappings(ctx context.Context, groupID int64) ([]site.PathMapping, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, site_id, path, created_at
		 FROM site_path_mappings
		 WHERE group_id = $1
		 ORDER BY length(path) ASC, path ASC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []site.PathMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (s *Store) DeleteMapping(ctx context.Context, groupID, siteID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM site_path_mappings WHERE group_id = $1 AND site_id = $2`,
		groupID, siteID)
	if err != nil {
		return fmt.Errorf("delete mapping for site %d: %w", siteID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete mapping for site %d: %w", siteID, domain.ErrNotFound)
	}
	return nil
}

func scanMapping(row scannable) (site.PathMapping, error) {
	var m site.PathMapping
	err := row.Scan(&m.ID, &m.GroupID, &m.SiteID, &m.Path, &m.CreatedAt)
	return m, err
}
