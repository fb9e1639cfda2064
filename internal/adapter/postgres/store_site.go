package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
)

func (s *Store) GetSite(ctx context.Context, id int64) (*site.Site, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, group_id, domain, internal_path, title, created_at, updated_at
		 FROM sites WHERE id = $1`, id)

	st, err := scanSite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get site %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get site %d: %w", id, err)
	}
	return &st, nil
}

func (s *Store) CreateSite(ctx context.Context, in *site.Site) (*site.Site, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sites (group_id, domain, internal_path, title)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, group_id, domain, internal_path, title, created_at, updated_at`,
		in.GroupID, in.Domain, in.InternalPath, in.Title)

	st, err := scanSite(row)
	if err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	return &st, nil
}

func (s *Store) DeleteSite(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete site %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete site %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateSiteTitle(ctx context.Context, id int64, title string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sites SET title = $2, updated_at = now() WHERE id = $1`, id, title)
	if err != nil {
		return fmt.Errorf("update site %d title: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update site %d title: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateSiteInternalPath(ctx context.Context, id int64, path string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sites SET internal_path = $2, updated_at = now() WHERE id = $1`, id, path)
	if err != nil {
		return fmt.Errorf("update site %d path: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update site %d path: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanSite(row scannable) (site.Site, error) {
	var st site.Site
	err := row.Scan(&st.ID, &st.GroupID, &st.Domain, &st.InternalPath, &st.Title, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}
