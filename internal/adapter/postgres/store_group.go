package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
)

func (s *Store) GetGroup(ctx context.Context, id int64) (*site.Group, error) {
	var g site.Group
	err := s.pool.QueryRow(ctx,
		`SELECT id, domain, primary_site_id FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Domain, &g.PrimarySiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get group %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get group %d: %w", id, err)
	}
	return &g, nil
}

func (s *Store) GetGroupByDomain(ctx context.Context, dom string) (*site.Group, error) {
	var g site.Group
	err := s.pool.QueryRow(ctx,
		`SELECT id, domain, primary_site_id FROM groups WHERE domain = $1`, dom,
	).Scan(&g.ID, &g.Domain, &g.PrimarySiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get group for %s: %w", dom, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get group for %s: %w", dom, err)
	}
	return &g, nil
}
