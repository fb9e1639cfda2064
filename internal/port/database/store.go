// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/ideai-platform/sitetree/internal/domain/site"
)

// Store is the port interface for database operations.
//
// Lookup misses return domain.ErrNotFound; callers on the request path treat
// a miss as a normal outcome, never as a failure.
type Store interface {
	// Mappings
	//
	// ReplaceMapping removes any mapping with the same site and any mapping
	// at the same path within the group, then inserts the new row, all in
	// one transaction. Path must already be normalized.
	ReplaceMapping(ctx context.Context, m site.PathMapping) (*site.PathMapping, error)
	GetMappingBySite(ctx context.Context, groupID, siteID int64) (*site.PathMapping, error)
	// ResolvePath returns the mapping with the longest path that is a string
	// prefix of requestPath (which must be normalized).
	ResolvePath(ctx context.Context, groupID int64, requestPath string) (*site.Resolution, error)
	// ListMappings returns mappings ascending by path length, then path.
	ListMappings(ctx context.Context, groupID int64) ([]site.PathMapping, error)
	DeleteMapping(ctx context.Context, groupID, siteID int64) error

	// Sites
	GetSite(ctx context.Context, id int64) (*site.Site, error)
	CreateSite(ctx context.Context, s *site.Site) (*site.Site, error)
	DeleteSite(ctx context.Context, id int64) error
	UpdateSiteTitle(ctx context.Context, id int64, title string) error
	UpdateSiteInternalPath(ctx context.Context, id int64, path string) error

	// Groups
	GetGroup(ctx context.Context, id int64) (*site.Group, error)
	GetGroupByDomain(ctx context.Context, domain string) (*site.Group, error)

	// Pages (the platform's content-page subsystem, consulted for the
	// strict collision policy; relPath has no leading or trailing slash)
	PageExistsAtPath(ctx context.Context, groupID int64, relPath string) (bool, error)

	// Flags
	//
	// GetFlags returns a disabled Flags value, not an error, when no record
	// exists for the group.
	GetFlags(ctx context.Context, groupID int64) (site.Flags, error)
	SetFlags(ctx context.Context, groupID int64, f site.Flags) error
}
