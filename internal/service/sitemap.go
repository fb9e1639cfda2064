package service

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
)

// SitemapEntry is one <url> element of the sitemap.
type SitemapEntry struct {
	XMLName  xml.Name `xml:"url"`
	Loc      string   `xml:"loc"`
	Priority string   `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name       `xml:"urlset"`
	Xmlns   string         `xml:"xmlns,attr"`
	URLs    []SitemapEntry `xml:"url"`
}

// SitemapService enumerates every mapped site into sitemap entries.
// Priority decays with nesting depth; the root site stays at 1.0.
type SitemapService struct {
	store    database.Store
	registry *RegistryService
}

func NewSitemapService(store database.Store, registry *RegistryService) *SitemapService {
	return &SitemapService{store: store, registry: registry}
}

func (s *SitemapService) Entries(ctx context.Context, groupID int64) ([]SitemapEntry, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}

	mappings, err := s.registry.List(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	entries := []SitemapEntry{{
		Loc:      "https://" + group.Domain + "/",
		Priority: "1.0",
	}}
	for _, m := range mappings {
		if m.Path == "/" {
			continue
		}
		entries = append(entries, SitemapEntry{
			Loc:      "https://" + group.Domain + m.Path,
			Priority: depthPriority(site.Depth(m.Path)),
		})
	}
	return entries, nil
}

// XML renders the group's sitemap as a sitemaps.org urlset document.
func (s *SitemapService) XML(ctx context.Context, groupID int64) ([]byte, error) {
	entries, err := s.Entries(ctx, groupID)
	if err != nil {
		return nil, err
	}
	doc := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  entries,
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func depthPriority(depth int) string {
	p := 1.0 - 0.2*float64(depth)
	if p < 0.3 {
		p = 0.3
	}
	return fmt.Sprintf("%.1f", p)
}
