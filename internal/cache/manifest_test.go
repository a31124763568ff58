package cache

import (
	"path/filepath"
	"testing"
)

func TestNewManifest(t *testing.T) {
	m := New("0.1.0")
	if m.Schema != SchemaVersion {
		t.Errorf("Schema = %s, want %s", m.Schema, SchemaVersion)
	}
	if len(m.Functions) != 0 {
		t.Errorf("Functions should be empty, got %d", len(m.Functions))
	}
}

func TestLoadMissingFileReturnsFreshManifest(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"), "0.1.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Functions) != 0 {
		t.Fatalf("expected an empty manifest for a missing file")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	m := New("0.1.0")
	m.ModuleHash = 12345
	m.Upsert(FunctionEntry{Name: "fib", BodyHash: 1, SignatureHash: 2, CalleesHash: 3, GlobalsHash: 4})

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := Load(path, "0.1.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.ModuleHash != 12345 {
		t.Fatalf("ModuleHash did not round-trip: got %d", reloaded.ModuleHash)
	}
	entry, ok := reloaded.Find("fib")
	if !ok {
		t.Fatalf("expected to find the fib entry after reload")
	}
	if entry.BodyHash != 1 || entry.SignatureHash != 2 || entry.CalleesHash != 3 || entry.GlobalsHash != 4 {
		t.Fatalf("entry did not round-trip: %+v", entry)
	}
}

func TestUpsertReplacesExistingEntry(t *testing.T) {
	m := New("0.1.0")
	m.Upsert(FunctionEntry{Name: "f", BodyHash: 1})
	m.Upsert(FunctionEntry{Name: "f", BodyHash: 2})
	if len(m.Functions) != 1 {
		t.Fatalf("expected Upsert to replace, not append, got %d entries", len(m.Functions))
	}
	entry, _ := m.Find("f")
	if entry.BodyHash != 2 {
		t.Fatalf("expected the replaced entry's hash, got %d", entry.BodyHash)
	}
}

func TestChangedReportsTrueForUnknownOrDifferingFunction(t *testing.T) {
	m := New("0.1.0")
	current := FunctionHash{Body: 1, Signature: 2, Callees: 3, Globals: 4}
	if !m.Changed("new_fn", current) {
		t.Fatalf("expected an unseen function to be reported as changed")
	}
	m.Upsert(FunctionEntry{Name: "new_fn", BodyHash: 1, SignatureHash: 2, CalleesHash: 3, GlobalsHash: 4})
	if m.Changed("new_fn", current) {
		t.Fatalf("expected an identical hash to be reported as unchanged")
	}
	current.Body = 999
	if !m.Changed("new_fn", current) {
		t.Fatalf("expected a changed body hash to be reported as changed")
	}
}

func TestLoadRejectsStaleSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	m := New("0.1.0")
	m.Schema = "oric.cache/v0"
	m.Upsert(FunctionEntry{Name: "stale", BodyHash: 1})
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path, "0.1.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded.Functions) != 0 {
		t.Fatalf("expected a schema mismatch to discard the cache entirely")
	}
}
