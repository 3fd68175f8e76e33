package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/remote"
)

// ---------------------------------------------------------------------------
// Mocks - browser and object store
// ---------------------------------------------------------------------------

// mockSession returns a fixed PDF for every address except those in errs.
type mockSession struct {
	mu       sync.Mutex
	pdf      []byte
	errs     map[string]error
	rendered []string
}

func (s *mockSession) Render(_ context.Context, address string, _ time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered = append(s.rendered, address)
	if err, ok := s.errs[address]; ok {
		return nil, &brochure.RenderFailure{Address: address, Cause: err}
	}
	return s.pdf, nil
}

func (s *mockSession) Close() error { return nil }

func (s *mockSession) Rendered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rendered...)
}

type mockLauncher struct {
	session  *mockSession
	err      error
	settings brochure.RenderSettings
}

func (l *mockLauncher) Open(_ context.Context) (brochure.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

// mockObjectStore records uploads in memory.
type mockObjectStore struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func (m *mockObjectStore) PutObject(_ context.Context, bucket, key string, data []byte, _ string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	m.puts[bucket+"/"+key] = data
	return nil
}

func (m *mockObjectStore) PublicURL(bucket, key string) string {
	return "https://cdn.example.com/" + bucket + "/" + key
}

func (m *mockObjectStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.puts {
		keys = append(keys, k)
	}
	return keys
}

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	vars     map[string]string
	launcher *mockLauncher
	store    *mockObjectStore
}

// newTestEnv returns an Environment with buffered output, a private variable
// map and mock collaborators. No process environment or .env.local is read.
func newTestEnv(t testing.TB) *testEnv {
	t.Helper()

	te := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		vars:     map[string]string{},
		launcher: &mockLauncher{session: &mockSession{pdf: buildPDF(t, [2]float64{595.28, 841.89})}},
		store:    &mockObjectStore{},
	}
	te.Environment = &Environment{
		Now:    func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			var out []string
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewLauncher: func(s brochure.RenderSettings) (brochure.Launcher, error) {
			te.launcher.settings = s
			return te.launcher, nil
		},
		NewObjectStore: func(remote.Credentials) (brochure.ObjectStore, error) {
			return te.store, nil
		},
	}
	return te
}

func (te *testEnv) withCredentials() *testEnv {
	te.vars["SUPABASE_URL"] = "https://project.supabase.co"
	te.vars["SUPABASE_SERVICE_ROLE_KEY"] = "service-role-key"
	return te
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// buildPDF writes a minimal valid PDF with one page per size (in points).
func buildPDF(t testing.TB, sizes ...[2]float64) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, 0, len(sizes))
	for i := range sizes {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(sizes)))

	for i, s := range sizes {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R /Resources << >> >>",
			s[0], s[1], 4+2*i))
		content := "q Q"
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// writeMark writes a small PNG mark and returns its path.
func writeMark(t testing.TB, dir string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := range 20 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	path := filepath.Join(dir, "logo.png")
	writeFile(t, path, buf.Bytes())
	return path
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}
