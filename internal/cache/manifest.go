package cache

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the on-disk manifest format version.
const SchemaVersion = "oric.cache/v1"

// FunctionEntry is one function's cached hash and the codegen artifacts it
// produced the last time it compiled cleanly.
type FunctionEntry struct {
	Name         string `yaml:"name"`
	BodyHash     uint64 `yaml:"body_hash"`
	SignatureHash uint64 `yaml:"signature_hash"`
	CalleesHash  uint64 `yaml:"callees_hash"`
	GlobalsHash  uint64 `yaml:"globals_hash"`
	ObjectPath   string `yaml:"object_path,omitempty"`
}

// Combined recomputes this entry's single cache key from its sub-hashes.
func (e FunctionEntry) Combined() uint64 {
	return FunctionHash{Body: e.BodyHash, Signature: e.SignatureHash, Callees: e.CalleesHash, Globals: e.GlobalsHash}.Combined()
}

// Manifest is the YAML-backed record of the last successful incremental
// build, mirroring one compile unit (spec.md §4.12).
type Manifest struct {
	Schema      string          `yaml:"schema"`
	ModuleHash  uint64          `yaml:"module_hash"`
	OricVersion string          `yaml:"oric_version"`
	Functions   []FunctionEntry `yaml:"functions"`
}

// New creates an empty manifest for a fresh build.
func New(oricVersion string) *Manifest {
	return &Manifest{Schema: SchemaVersion, OricVersion: oricVersion}
}

// Load reads a manifest from path. A missing file is not an error: the
// caller gets a fresh, empty manifest and every function looks changed.
func Load(path, oricVersion string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(oricVersion), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cache: parse manifest: %w", err)
	}
	if m.Schema != SchemaVersion {
		// A schema bump invalidates the whole cache rather than risking a
		// misread of an incompatible layout.
		return New(oricVersion), nil
	}
	return &m, nil
}

// Save writes the manifest to path with entries sorted by name, so two
// builds of an unchanged module produce byte-identical manifests.
func (m *Manifest) Save(path string) error {
	sort.Slice(m.Functions, func(i, j int) bool { return m.Functions[i].Name < m.Functions[j].Name })
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("cache: marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Find locates a function's prior entry by name.
func (m *Manifest) Find(name string) (FunctionEntry, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionEntry{}, false
}

// Upsert replaces or inserts a function's entry.
func (m *Manifest) Upsert(e FunctionEntry) {
	for i := range m.Functions {
		if m.Functions[i].Name == e.Name {
			m.Functions[i] = e
			return
		}
	}
	m.Functions = append(m.Functions, e)
}

// Changed reports whether a function's current hash differs from (or is
// absent from) the manifest's recorded hash, meaning it must recompile.
func (m *Manifest) Changed(name string, current FunctionHash) bool {
	prior, ok := m.Find(name)
	if !ok {
		return true
	}
	return prior.Combined() != current.Combined()
}
