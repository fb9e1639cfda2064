package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ideai-platform/sitetree/internal/adapter/otel"
	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/queue"
)

// mockStore is an in-memory Store with the same miss and longest-prefix
// semantics as the postgres adapter.
type mockStore struct {
	mu       sync.Mutex
	groups   map[int64]*site.Group
	sites    map[int64]*site.Site
	mappings map[int64]site.PathMapping // keyed by mapping ID
	pages    map[int64]map[string]bool  // groupID -> relPath -> published
	flags    map[int64]site.Flags
	nextID   int64

	resolveErr error
	flagsErr   error
	replaceErr error
	pageErr    error
}

func newMockStore() *mockStore {
	return &mockStore{
		groups:   make(map[int64]*site.Group),
		sites:    make(map[int64]*site.Site),
		mappings: make(map[int64]site.PathMapping),
		pages:    make(map[int64]map[string]bool),
		flags:    make(map[int64]site.Flags),
	}
}

func (m *mockStore) addGroup(g site.Group) {
	m.groups[g.ID] = &g
}

func (m *mockStore) addSite(s site.Site) *site.Site {
	m.sites[s.ID] = &s
	return &s
}

func (m *mockStore) addPage(groupID int64, relPath string) {
	if m.pages[groupID] == nil {
		m.pages[groupID] = make(map[string]bool)
	}
	m.pages[groupID][relPath] = true
}

func (m *mockStore) groupMappings(groupID int64) []site.PathMapping {
	var out []site.PathMapping
	for _, pm := range m.mappings {
		if pm.GroupID == groupID {
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Path) != len(out[j].Path) {
			return len(out[i].Path) < len(out[j].Path)
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (m *mockStore) ReplaceMapping(ctx context.Context, pm site.PathMapping) (*site.PathMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	for id, existing := range m.mappings {
		if existing.GroupID != pm.GroupID {
			continue
		}
		if existing.SiteID == pm.SiteID || existing.Path == pm.Path {
			delete(m.mappings, id)
		}
	}
	m.nextID++
	pm.ID = m.nextID
	pm.CreatedAt = time.Now()
	m.mappings[pm.ID] = pm
	return &pm, nil
}

func (m *mockStore) GetMappingBySite(ctx context.Context, groupID, siteID int64) (*site.PathMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pm := range m.mappings {
		if pm.GroupID == groupID && pm.SiteID == siteID {
			return &pm, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ResolvePath(ctx context.Context, groupID int64, requestPath string) (*site.Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	best := site.BestMatch(m.groupMappings(groupID), requestPath)
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return &site.Resolution{SiteID: best.SiteID, Path: best.Path}, nil
}

func (m *mockStore) ListMappings(ctx context.Context, groupID int64) ([]site.PathMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupMappings(groupID), nil
}

func (m *mockStore) DeleteMapping(ctx context.Context, groupID, siteID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, pm := range m.mappings {
		if pm.GroupID == groupID && pm.SiteID == siteID {
			delete(m.mappings, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) GetSite(ctx context.Context, id int64) (*site.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) CreateSite(ctx context.Context, s *site.Site) (*site.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.sites[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) DeleteSite(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sites, id)
	return nil
}

func (m *mockStore) UpdateSiteTitle(ctx context.Context, id int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Title = title
	return nil
}

func (m *mockStore) UpdateSiteInternalPath(ctx context.Context, id int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.InternalPath = path
	return nil
}

func (m *mockStore) GetGroup(ctx context.Context, id int64) (*site.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *mockStore) GetGroupByDomain(ctx context.Context, dom string) (*site.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Domain == dom {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) PageExistsAtPath(ctx context.Context, groupID int64, relPath string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pageErr != nil {
		return false, m.pageErr
	}
	return m.pages[groupID][relPath], nil
}

func (m *mockStore) GetFlags(ctx context.Context, groupID int64) (site.Flags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flagsErr != nil {
		return site.Flags{}, m.flagsErr
	}
	f, ok := m.flags[groupID]
	if !ok {
		return site.Flags{Enabled: false, CollisionMode: site.CollisionModeStrict}, nil
	}
	return f, nil
}

func (m *mockStore) SetFlags(ctx context.Context, groupID int64, f site.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[groupID] = f
	return nil
}

// mockCache is a TTL-less in-memory cache.
type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes = append(c.deletes, key)
	return nil
}

// mockQueue records publishes and lets tests invoke subscribers directly.
type mockQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
	handlers  map[string]queue.Handler
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		published: make(map[string][][]byte),
		handlers:  make(map[string]queue.Handler),
	}
}

func (q *mockQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published[subject] = append(q.published[subject], data)
	return nil
}

func (q *mockQueue) Subscribe(ctx context.Context, subject string, h queue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[subject] = h
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) lastPayload(t *testing.T, subject string, v any) {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.published[subject]
	if len(msgs) == 0 {
		t.Fatalf("no messages published on %s", subject)
	}
	if err := json.Unmarshal(msgs[len(msgs)-1], v); err != nil {
		t.Fatalf("unmarshal %s payload: %v", subject, err)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics(t *testing.T) *otel.Metrics {
	t.Helper()
	m, err := otel.NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// fixture builds a group with an enabled flag record and a primary site,
// mirroring a provisioned production group.
type fixture struct {
	store    *mockStore
	cache    *mockCache
	registry *RegistryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMockStore()
	store.addGroup(site.Group{ID: 1, Domain: "example.com", PrimarySiteID: 100})
	store.addSite(site.Site{ID: 100, GroupID: 1, Domain: "example.com", InternalPath: "/", Title: "Main"})
	store.flags[1] = site.Flags{Enabled: true, CollisionMode: site.CollisionModeStrict}

	c := newMockCache()
	reg := NewRegistryService(store, c, testMetrics(t), testLogger(), time.Minute, 5*time.Minute)
	return &fixture{store: store, cache: c, registry: reg}
}
