package unit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type eventCatalog struct {
	SourceService string                  `json:"source_service"`
	Envelope      string                  `json:"envelope"`
	Events        map[string]catalogEntry `json:"events"`
}

type catalogEntry struct {
	PartitionKeyPath string          `json:"partition_key_path"`
	Data             json.RawMessage `json:"data"`
}

func TestEventCatalogsAreWellFormed(t *testing.T) {
	root, err := findRepoRoot()
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(root, "contracts", "events", "v1", "*.json"))
	if err != nil {
		t.Fatalf("glob event catalogs: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no event catalogs found under contracts/events/v1")
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		var catalog eventCatalog
		if err := json.Unmarshal(data, &catalog); err != nil {
			t.Fatalf("invalid catalog %s: %v", path, err)
		}
		if catalog.SourceService == "" {
			t.Fatalf("catalog %s missing source_service", path)
		}
		if len(catalog.Events) == 0 {
			t.Fatalf("catalog %s declares no events", path)
		}
		for name, entry := range catalog.Events {
			if !strings.Contains(name, ".") {
				t.Fatalf("catalog %s event %q is not namespaced", path, name)
			}
			if entry.PartitionKeyPath == "" {
				t.Fatalf("catalog %s event %q missing partition_key_path", path, name)
			}
			if len(entry.Data) == 0 {
				t.Fatalf("catalog %s event %q missing data schema", path, name)
			}
		}
	}
}

func TestSchemaArtifactsParse(t *testing.T) {
	root, err := findRepoRoot()
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(root, "contracts", "schemas", "v1", "*.json"))
	if err != nil {
		t.Fatalf("glob schema artifacts: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no schema artifacts found under contracts/schemas/v1")
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("invalid json schema %s: %v", path, err)
		}
		if _, ok := payload["properties"]; !ok {
			t.Fatalf("schema %s declares no properties", path)
		}
	}
}

func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	current := wd
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found from %s", wd)
		}
		current = parent
	}
}
