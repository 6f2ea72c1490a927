// Package browser drives a real Chrome over CDP and exposes it as the
// resource substrate the provisioner works against: a resource is a tab, a
// group is a named aggregation of tabs tracked in the manager's registry
// (CDP has no native tab-group surface). The registry persists across CLI
// invocations so groups stay inspectable after the process exits.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jasonlam510/Learnerator/internal/provision"
)

// ErrNotConnected is returned when an operation needs a live browser and
// none is attached.
var ErrNotConnected = errors.New("browser not connected")

// ErrUnknownHandle is returned for handles the registry has never seen.
var ErrUnknownHandle = errors.New("unknown handle")

// Tab is the public metadata for one tracked tab.
type Tab struct {
	ID         string    `json:"id"`
	TargetID   string    `json:"target_id,omitempty"`
	URL        string    `json:"url,omitempty"`
	Status     string    `json:"status,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Group is a named aggregation of tab handles in creation order.
type Group struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

type tabRecord struct {
	meta Tab
	page *rod.Page
}

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string   `yaml:"debugger_url"`
	Launch              []string `yaml:"launch"`
	Headless            bool     `yaml:"headless"`
	ViewportWidth       int      `yaml:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms"`
	GroupStore          string   `yaml:"group_store"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            false,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 30000,
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Manager owns the Chrome connection and the tab/group registry. It
// implements provision.Substrate plus provision.ResourceReadiness.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu         sync.RWMutex
	browser    *rod.Browser
	controlURL string
	tabs       map[string]*tabRecord
	groups     map[string]*Group
}

// NewManager creates a manager. A nil logger disables diagnostics.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		log:    logger,
		tabs:   make(map[string]*tabRecord),
		groups: make(map[string]*Group),
	}
}

// Start connects to an existing Chrome or launches a new one.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If we already have a browser, verify it's still alive.
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.log.Warn("stale browser connection, reconnecting")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
		m.tabs = make(map[string]*tabRecord)
		m.groups = make(map[string]*Group)
	}

	if err := m.loadRegistryLocked(); err != nil {
		return fmt.Errorf("load group registry: %w", err)
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" && len(m.cfg.Launch) > 0 {
		bin := m.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.cfg.Headless)
		for _, rawFlag := range m.cfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			// Fallback without the extra flags.
			fallback := launcher.New().Bin(bin).Headless(m.cfg.Headless)
			alt, altErr := fallback.Launch()
			if altErr != nil {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
			controlURL = alt
		} else {
			controlURL = url
		}
	}

	if controlURL == "" {
		url, err := launcher.New().Headless(m.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("no debugger_url and failed to launch: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	m.controlURL = controlURL
	m.log.Debug("browser connected", zap.String("control_url", controlURL))
	return nil
}

func (m *Manager) ensureStarted(ctx context.Context) error {
	m.mu.RLock()
	if m.browser != nil {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()
	return m.Start(ctx)
}

// ControlURL returns the WebSocket debugger URL.
func (m *Manager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected reports whether a browser is attached.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// Shutdown persists the registry, closes tracked pages and the browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistRegistryLocked(); err != nil {
		m.log.Warn("persist group registry failed", zap.Error(err))
	}

	for id, rec := range m.tabs {
		if rec.page != nil {
			_ = rec.page.Close()
		}
		delete(m.tabs, id)
	}

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.controlURL = ""
	return err
}

// Capabilities reports the substrate surface. A manager that cannot reach a
// browser reports the whole surface missing.
func (m *Manager) Capabilities(ctx context.Context) (provision.CapabilitySet, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return nil, fmt.Errorf("substrate unreachable: %w", err)
	}
	return provision.FullCapabilitySet(), nil
}

// CreateResource opens a tab at the given URL and returns its handle.
func (m *Manager) CreateResource(ctx context.Context, ref string) (string, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return "", err
	}
	m.mu.RLock()
	browser := m.browser
	m.mu.RUnlock()
	if browser == nil {
		return "", ErrNotConnected
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: ref})
	if err != nil {
		return "", fmt.Errorf("create tab: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.GetViewportWidth(),
		Height:            m.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.log.Warn("set viewport failed", zap.Error(err))
	}

	_ = page.Context(ctx).Timeout(m.cfg.NavigationTimeout()).WaitLoad()

	meta := Tab{
		ID:         uuid.NewString(),
		TargetID:   string(page.TargetID),
		URL:        ref,
		Status:     "active",
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}

	m.mu.Lock()
	m.tabs[meta.ID] = &tabRecord{meta: meta, page: page}
	err = m.persistRegistryLocked()
	m.mu.Unlock()
	if err != nil {
		m.log.Warn("persist group registry failed", zap.Error(err))
	}

	return meta.ID, nil
}

// CreateGroup aggregates existing tab handles into one group. Every handle
// must be known to the registry.
func (m *Manager) CreateGroup(ctx context.Context, handles []string) (string, error) {
	if len(handles) == 0 {
		return "", errors.New("no handles to group")
	}
	if err := m.ensureStarted(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range handles {
		if _, ok := m.tabs[h]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownHandle, h)
		}
	}

	group := &Group{
		ID:        uuid.NewString(),
		Members:   append([]string(nil), handles...),
		CreatedAt: time.Now(),
	}
	m.groups[group.ID] = group
	for _, h := range handles {
		m.tabs[h].meta.GroupID = group.ID
	}

	if err := m.persistRegistryLocked(); err != nil {
		m.log.Warn("persist group registry failed", zap.Error(err))
	}
	return group.ID, nil
}

// SetGroupTitle sets a group's display title.
func (m *Manager) SetGroupTitle(ctx context.Context, groupHandle, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[groupHandle]
	if !ok {
		return fmt.Errorf("%w: group %s", ErrUnknownHandle, groupHandle)
	}
	group.Title = title

	if err := m.persistRegistryLocked(); err != nil {
		m.log.Warn("persist group registry failed", zap.Error(err))
	}
	return nil
}

// GetGroup reads a group back. The member count covers only members whose
// tabs are still reachable in the live browser, so a tab closed out from
// under the provisioner shows up as drift on verification.
func (m *Manager) GetGroup(ctx context.Context, groupHandle string) (provision.GroupInfo, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return provision.GroupInfo{}, err
	}

	m.mu.RLock()
	group, ok := m.groups[groupHandle]
	browser := m.browser
	var title string
	var members []string
	if ok {
		title = group.Title
		members = append([]string(nil), group.Members...)
	}
	targets := make(map[string]bool, len(members))
	for _, h := range members {
		if rec, ok := m.tabs[h]; ok && rec.page != nil {
			targets[rec.meta.TargetID] = false
		}
	}
	m.mu.RUnlock()

	if !ok {
		return provision.GroupInfo{}, fmt.Errorf("%w: group %s", ErrUnknownHandle, groupHandle)
	}
	if browser == nil {
		return provision.GroupInfo{}, ErrNotConnected
	}

	res, err := proto.TargetGetTargets{}.Call(browser)
	if err != nil {
		return provision.GroupInfo{}, fmt.Errorf("list targets: %w", err)
	}
	for _, info := range res.TargetInfos {
		if _, tracked := targets[string(info.TargetID)]; tracked {
			targets[string(info.TargetID)] = true
		}
	}

	count := 0
	for _, alive := range targets {
		if alive {
			count++
		}
	}
	return provision.GroupInfo{Title: title, MemberCount: count}, nil
}

// SetActiveResource brings a tab to the front.
func (m *Manager) SetActiveResource(ctx context.Context, handle string) error {
	page, ok := m.page(handle)
	if !ok || page == nil {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	if _, err := page.Context(ctx).Activate(); err != nil {
		return fmt.Errorf("activate tab %s: %w", handle, err)
	}
	m.touch(handle)
	return nil
}

// QueryResourcesByGroup returns a group's member handles in creation order.
func (m *Manager) QueryResourcesByGroup(ctx context.Context, groupHandle string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	group, ok := m.groups[groupHandle]
	if !ok {
		return nil, fmt.Errorf("%w: group %s", ErrUnknownHandle, groupHandle)
	}
	return append([]string(nil), group.Members...), nil
}

// ResourceReady reports whether a tab's document load has settled. The
// provisioner polls this between tab creation and grouping instead of
// sleeping for the fixed settle delay.
func (m *Manager) ResourceReady(ctx context.Context, handle string) (bool, error) {
	page, ok := m.page(handle)
	if !ok || page == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           `() => document.readyState`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return false, err
	}
	state := res.Value.Str()
	return state == "interactive" || state == "complete", nil
}

// List returns metadata for all known tabs.
func (m *Manager) List() []Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tab, 0, len(m.tabs))
	for _, rec := range m.tabs {
		out = append(out, rec.meta)
	}
	return out
}

// Groups returns all known groups.
func (m *Manager) Groups() []Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, *g)
	}
	return out
}

// Tab returns metadata for one handle.
func (m *Manager) Tab(handle string) (Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tabs[handle]
	if !ok {
		return Tab{}, false
	}
	return rec.meta, true
}

func (m *Manager) page(handle string) (*rod.Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tabs[handle]
	if !ok {
		return nil, false
	}
	return rec.page, true
}

func (m *Manager) touch(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.tabs[handle]; ok {
		rec.meta.LastActive = time.Now()
	}
}
