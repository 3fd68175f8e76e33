package yamlutil_test

// Notes:
// - Marshal error branch: not tested because yaml.Marshal only fails with
//   unmarshalable types (channels, functions), which never reach it in practice.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-brochure/internal/yamlutil"
)

type testConfig struct {
	Dir     string `yaml:"dir"`
	Workers int    `yaml:"workers"`
	Force   bool   `yaml:"force"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - YAML and JSON into Go structs
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		want    testConfig
	}{
		{
			name: "valid YAML",
			data: []byte("dir: dist\nworkers: 2\nforce: true"),
			dest: &testConfig{},
			want: testConfig{Dir: "dist", Workers: 2, Force: true},
		},
		{
			name: "valid JSON",
			data: []byte(`{"dir": "out", "workers": 3}`),
			dest: &testConfig{},
			want: testConfig{Dir: "out", Workers: 3},
		},
		{
			name: "unknown field ignored",
			data: []byte("dir: dist\nextra: 1"),
			dest: &testConfig{},
			want: testConfig{Dir: "dist"},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("dir: dist"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Unmarshal() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() unexpected error: %v", err)
			}
			got := *tt.dest.(*testConfig)
			if got != tt.want {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Unknown fields are rejected
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	err := yamlutil.UnmarshalStrict([]byte("dir: dist\nextra: 1"), &cfg)
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "yamlutil:") {
		t.Errorf("error %q should carry yamlutil prefix", err)
	}
}

// ---------------------------------------------------------------------------
// TestDocument - Untyped decoding
// ---------------------------------------------------------------------------

func TestDocument(t *testing.T) {
	t.Parallel()

	t.Run("JSON array of mixed items", func(t *testing.T) {
		t.Parallel()

		doc, err := yamlutil.Document([]byte(`["tokyo-3day", {"slug": "kyoto/osaka-5day"}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items, ok := doc.([]any)
		if !ok {
			t.Fatalf("expected []any, got %T", doc)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0] != "tokyo-3day" {
			t.Errorf("items[0] = %v, want tokyo-3day", items[0])
		}
		m, ok := items[1].(map[string]any)
		if !ok {
			t.Fatalf("expected map item, got %T", items[1])
		}
		if m["slug"] != "kyoto/osaka-5day" {
			t.Errorf("slug = %v, want kyoto/osaka-5day", m["slug"])
		}
	})

	t.Run("input too large", func(t *testing.T) {
		t.Parallel()

		big := make([]byte, yamlutil.MaxInputSize+1)
		_, err := yamlutil.Document(big)
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge, got %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestReadFile - File-backed decoding
// ---------------------------------------------------------------------------

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("reads YAML list", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "list.yaml")
		if err := os.WriteFile(path, []byte("- a\n- b\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		doc, err := yamlutil.ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items, ok := doc.([]any); !ok || len(items) != 2 {
			t.Errorf("expected 2-item list, got %#v", doc)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := yamlutil.ReadFile(filepath.Join(dir, "missing.json"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}
