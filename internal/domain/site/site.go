// Package site defines the domain model for hierarchical multi-site hosting:
// sites, groups, and the nested-path mappings that route requests to sites.
package site

import "time"

// CollisionModeStrict blocks mapping writes that collide with content pages.
// It is the only supported collision mode.
const CollisionModeStrict = "strict"

// Site is a tenant in a hosting group, as the host platform records it.
// InternalPath is the platform's own single-level bookkeeping path; once a
// nested mapping exists it is never authoritative for routing.
type Site struct {
	ID           int64     `json:"id"`
	GroupID      int64     `json:"group_id"`
	Domain       string    `json:"domain"`
	InternalPath string    `json:"internal_path"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Group is a collection of sites sharing one domain and one registry
// namespace. PrimarySiteID is the site that owns the root path "/".
type Group struct {
	ID            int64  `json:"id"`
	Domain        string `json:"domain"`
	PrimarySiteID int64  `json:"primary_site_id"`
}

// PathMapping maps a site to its nested hierarchical path within a group.
// Path is always normalized (leading and trailing slash, no duplicate
// slashes) before storage or comparison.
type PathMapping struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	SiteID    int64     `json:"site_id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolution is the outcome of a deepest-prefix-wins lookup.
type Resolution struct {
	SiteID int64  `json:"site_id"`
	Path   string `json:"path"`
}

// Flags is the per-group feature flag record. A missing record means the
// feature is disabled.
type Flags struct {
	Enabled       bool   `json:"enabled"`
	CollisionMode string `json:"collision_mode"`
}

// CreateRequest holds the fields required to provision a nested site.
type CreateRequest struct {
	GroupID    int64  `json:"group_id"`
	ParentPath string `json:"parent_path"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
}
