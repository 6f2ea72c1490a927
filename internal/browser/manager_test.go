package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	if got := c.GetViewportWidth(); got != 1920 {
		t.Errorf("GetViewportWidth() = %d, want 1920", got)
	}
	if got := c.GetViewportHeight(); got != 1080 {
		t.Errorf("GetViewportHeight() = %d, want 1080", got)
	}
	if got := c.NavigationTimeout(); got != 30*time.Second {
		t.Errorf("NavigationTimeout() = %v, want 30s", got)
	}

	c = Config{ViewportWidth: 800, ViewportHeight: 600, NavigationTimeoutMs: 5000}
	if got := c.NavigationTimeout(); got != 5*time.Second {
		t.Errorf("NavigationTimeout() = %v, want 5s", got)
	}
	if got := c.GetViewportWidth(); got != 800 {
		t.Errorf("GetViewportWidth() = %d, want 800", got)
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	store := filepath.Join(t.TempDir(), "state", "groups.json")

	src := NewManager(Config{GroupStore: store}, zaptest.NewLogger(t))
	src.tabs["tab-1"] = &tabRecord{meta: Tab{
		ID:        "tab-1",
		TargetID:  "T1",
		URL:       "https://a.example",
		Status:    "active",
		GroupID:   "grp-1",
		CreatedAt: time.Now(),
	}}
	src.tabs["tab-2"] = &tabRecord{meta: Tab{
		ID:       "tab-2",
		TargetID: "T2",
		URL:      "https://b.example",
		Status:   "active",
		GroupID:  "grp-1",
	}}
	src.groups["grp-1"] = &Group{
		ID:      "grp-1",
		Title:   "Research",
		Members: []string{"tab-1", "tab-2"},
	}
	require.NoError(t, src.persistRegistryLocked())

	dst := NewManager(Config{GroupStore: store}, zaptest.NewLogger(t))
	require.NoError(t, dst.loadRegistryLocked())

	require.Len(t, dst.tabs, 2)
	require.Len(t, dst.groups, 1)

	// Tabs loaded from disk have no live page and are marked detached.
	for _, rec := range dst.tabs {
		assert.Equal(t, "detached", rec.meta.Status)
		assert.Nil(t, rec.page)
	}

	group := dst.groups["grp-1"]
	require.NotNil(t, group)
	assert.Equal(t, "Research", group.Title)
	assert.Equal(t, []string{"tab-1", "tab-2"}, group.Members)
}

func TestRegistryAbsentFileIsEmpty(t *testing.T) {
	store := filepath.Join(t.TempDir(), "missing.json")
	m := NewManager(Config{GroupStore: store}, zaptest.NewLogger(t))
	require.NoError(t, m.loadRegistryLocked())
	assert.Empty(t, m.tabs)
	assert.Empty(t, m.groups)
}

func TestRegistryCorruptFile(t *testing.T) {
	store := filepath.Join(t.TempDir(), "groups.json")
	require.NoError(t, os.WriteFile(store, []byte("{not json"), 0o644))

	m := NewManager(Config{GroupStore: store}, zaptest.NewLogger(t))
	require.Error(t, m.loadRegistryLocked())
}

func TestRegistryDisabledWithoutStorePath(t *testing.T) {
	m := NewManager(Config{}, zaptest.NewLogger(t))
	require.NoError(t, m.persistRegistryLocked())
	require.NoError(t, m.loadRegistryLocked())
}

func TestQueryResourcesByGroupUnknown(t *testing.T) {
	m := NewManager(Config{}, zaptest.NewLogger(t))
	_, err := m.QueryResourcesByGroup(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownHandle)
}

func TestQueryResourcesByGroupOrder(t *testing.T) {
	m := NewManager(Config{}, zaptest.NewLogger(t))
	m.groups["g"] = &Group{ID: "g", Members: []string{"c", "a", "b"}}

	got, err := m.QueryResourcesByGroup(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, got)

	// The returned slice is a copy, not the registry's backing array.
	got[0] = "mutated"
	assert.Equal(t, []string{"c", "a", "b"}, m.groups["g"].Members)
}

func TestSetGroupTitleUnknown(t *testing.T) {
	m := NewManager(Config{}, zaptest.NewLogger(t))
	err := m.SetGroupTitle(context.Background(), "nope", "Title")
	require.ErrorIs(t, err, ErrUnknownHandle)
}

func TestListAndTab(t *testing.T) {
	m := NewManager(Config{}, zaptest.NewLogger(t))
	m.tabs["tab-1"] = &tabRecord{meta: Tab{ID: "tab-1", URL: "https://a.example"}}

	tabs := m.List()
	require.Len(t, tabs, 1)
	assert.Equal(t, "https://a.example", tabs[0].URL)

	got, ok := m.Tab("tab-1")
	require.True(t, ok)
	assert.Equal(t, "tab-1", got.ID)

	_, ok = m.Tab("absent")
	assert.False(t, ok)
}
