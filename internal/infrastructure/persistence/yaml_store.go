// Package persistence implements the entity store as a directory of YAML
// files, one per entity kind: load-at-startup, save-on-mutation, atomic
// per-file replace via temp file and rename.
package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/profile"
	"github.com/jbctechsolutions/tilekit/internal/domain/rule"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
)

// schemaVersion tags each on-disk file; bumped on incompatible changes.
const schemaVersion = 1

// One file per entity kind inside the store directory.
const (
	workspacesFile = "workspaces.yaml"
	patternsFile   = "patterns.yaml"
	rulesFile      = "rules.yaml"
	monitorsFile   = "monitor_configurations.yaml"
	profilesFile   = "application_profiles.yaml"
	mappingsFile   = "keyboard_mappings.yaml"
)

// header is the shared version prefix of every entity file.
type header struct {
	Version int `yaml:"version"`
}

func (h header) version() int { return h.Version }

// versioned is satisfied by every entity file document through header.
type versioned interface{ version() int }

type workspacesDoc struct {
	header     `yaml:",inline"`
	Workspaces []*workspace.Workspace `yaml:"workspaces,omitempty"`
}

type patternsDoc struct {
	header   `yaml:",inline"`
	Patterns []*pattern.Pattern `yaml:"patterns,omitempty"`
}

type rulesDoc struct {
	header `yaml:",inline"`
	Rules  []*rule.Rule `yaml:"rules,omitempty"`
}

type monitorsDoc struct {
	header   `yaml:",inline"`
	Monitors []*monitor.Configuration `yaml:"monitor_configurations,omitempty"`
}

type profilesDoc struct {
	header   `yaml:",inline"`
	Profiles []*profile.Profile `yaml:"application_profiles,omitempty"`
}

type mappingsDoc struct {
	header   `yaml:",inline"`
	Mappings []*keymap.Mapping `yaml:"keyboard_mappings,omitempty"`
}

// YAMLStore persists the registry snapshot to a directory of YAML files.
type YAMLStore struct {
	dir string
	mu  sync.Mutex
}

// NewYAMLStore creates a store backed by the given directory. The directory
// and its files are created on first save; missing files load as empty
// sections.
func NewYAMLStore(dir string) *YAMLStore {
	return &YAMLStore{dir: dir}
}

// Dir returns the backing store directory.
func (s *YAMLStore) Dir() string {
	return s.dir
}

// LoadSnapshot reads the full entity set from the store directory.
func (s *YAMLStore) LoadSnapshot(ctx context.Context) (*ports.RegistrySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		ws workspacesDoc
		ps patternsDoc
		rs rulesDoc
		ms monitorsDoc
		pr profilesDoc
		km mappingsDoc
	)
	for name, doc := range map[string]versioned{
		workspacesFile: &ws,
		patternsFile:   &ps,
		rulesFile:      &rs,
		monitorsFile:   &ms,
		profilesFile:   &pr,
		mappingsFile:   &km,
	} {
		if err := s.readDoc(name, doc); err != nil {
			return nil, err
		}
	}

	return &ports.RegistrySnapshot{
		Workspaces: ws.Workspaces,
		Patterns:   ps.Patterns,
		Rules:      rs.Rules,
		Monitors:   ms.Monitors,
		Profiles:   pr.Profiles,
		Mappings:   km.Mappings,
	}, nil
}

// SaveSnapshot writes the full entity set, one file per kind. Each file is
// replaced atomically: marshal, write to a temp file in the store directory,
// fsync, rename over the target. Readers never observe a partial file.
func (s *YAMLStore) SaveSnapshot(ctx context.Context, snap *ports.RegistrySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	h := header{Version: schemaVersion}
	files := []struct {
		name string
		doc  any
	}{
		{workspacesFile, &workspacesDoc{header: h, Workspaces: snap.Workspaces}},
		{patternsFile, &patternsDoc{header: h, Patterns: snap.Patterns}},
		{rulesFile, &rulesDoc{header: h, Rules: snap.Rules}},
		{monitorsFile, &monitorsDoc{header: h, Monitors: snap.Monitors}},
		{profilesFile, &profilesDoc{header: h, Profiles: snap.Profiles}},
		{mappingsFile, &mappingsDoc{header: h, Mappings: snap.Mappings}},
	}
	for _, f := range files {
		if err := s.writeDoc(f.name, f.doc); err != nil {
			return err
		}
	}
	return nil
}

// readDoc loads one entity file into doc. A missing file leaves doc empty.
func (s *YAMLStore) readDoc(name string, doc versioned) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if doc.version() > schemaVersion {
		return fmt.Errorf("%s version %d is newer than supported version %d", name, doc.version(), schemaVersion)
	}
	return nil
}

// writeDoc atomically replaces one entity file.
func (s *YAMLStore) writeDoc(name string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	// the temp suffix keeps the name outside the watcher's *.yaml set
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set store permissions: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
