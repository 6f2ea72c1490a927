package browser

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// registryFile is the on-disk shape of the tab/group registry.
type registryFile struct {
	Tabs   []Tab   `json:"tabs"`
	Groups []Group `json:"groups"`
}

// persistRegistryLocked writes tab and group metadata to disk. Caller must
// hold the lock.
func (m *Manager) persistRegistryLocked() error {
	if m.cfg.GroupStore == "" {
		return nil
	}

	file := registryFile{
		Tabs:   make([]Tab, 0, len(m.tabs)),
		Groups: make([]Group, 0, len(m.groups)),
	}
	for _, rec := range m.tabs {
		file.Tabs = append(file.Tabs, rec.meta)
	}
	for _, g := range m.groups {
		file.Groups = append(file.Groups, *g)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.cfg.GroupStore), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.cfg.GroupStore, data, 0o644)
}

// loadRegistryLocked loads persisted metadata. Tabs from a previous process
// have no live page and are marked detached; their groups stay listable but
// their members count as unreachable. Caller must hold the lock.
func (m *Manager) loadRegistryLocked() error {
	if m.cfg.GroupStore == "" {
		return nil
	}

	data, err := os.ReadFile(m.cfg.GroupStore)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}

	for _, t := range file.Tabs {
		t.Status = "detached"
		m.tabs[t.ID] = &tabRecord{meta: t, page: nil}
	}
	for _, g := range file.Groups {
		group := g
		m.groups[group.ID] = &group
	}
	return nil
}
