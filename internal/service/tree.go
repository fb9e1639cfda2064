package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
)

// TreeNode is one site in the hierarchical view of a group's registry.
type TreeNode struct {
	SiteID   int64       `json:"site_id"`
	Path     string      `json:"path"`
	Title    string      `json:"title"`
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children,omitempty"`
}

// TreeService renders the registry as a parent-to-child tree rooted at the
// group's primary site.
type TreeService struct {
	store    database.Store
	registry *RegistryService
}

func NewTreeService(store database.Store, registry *RegistryService) *TreeService {
	return &TreeService{store: store, registry: registry}
}

func (t *TreeService) Tree(ctx context.Context, groupID int64) (*TreeNode, error) {
	group, err := t.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}

	mappings, err := t.registry.List(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	root := &TreeNode{SiteID: group.PrimarySiteID, Path: "/", Title: "Root"}
	index := map[string]*TreeNode{"/": root}

	// Mappings arrive shallow first, so a node's nearest mapped ancestor is
	// already in the index when the node is visited. Gaps in the hierarchy
	// attach to the closest existing ancestor.
	for _, m := range mappings {
		if m.Path == "/" {
			root.SiteID = m.SiteID
			continue
		}
		node := &TreeNode{
			SiteID: m.SiteID,
			Path:   m.Path,
			Depth:  site.Depth(m.Path),
		}
		if st, err := t.store.GetSite(ctx, m.SiteID); err == nil {
			node.Title = st.Title
		}
		parent := nearestAncestor(index, m.Path)
		parent.Children = append(parent.Children, node)
		index[m.Path] = node
	}

	sortChildren(root)
	return root, nil
}

func nearestAncestor(index map[string]*TreeNode, path string) *TreeNode {
	p := path
	for p != "/" {
		p = strings.TrimSuffix(p, "/")
		if i := strings.LastIndex(p, "/"); i >= 0 {
			p = p[:i+1]
		}
		if n, ok := index[p]; ok {
			return n
		}
	}
	return index["/"]
}

func sortChildren(n *TreeNode) {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Path < n.Children[j].Path
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}
