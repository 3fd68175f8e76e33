package brochure

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"
)

// Mock implementations for testing.

type mockSession struct {
	mu      sync.Mutex
	docs    map[string][]byte // by address
	errs    map[string]error  // by address
	panics  map[string]bool
	renders []string
	closed  bool
}

func newMockSession(doc []byte) *mockSession {
	return &mockSession{
		docs:   map[string][]byte{"*": doc},
		errs:   map[string]error{},
		panics: map[string]bool{},
	}
}

func (m *mockSession) Render(ctx context.Context, address string, timeout time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.renders = append(m.renders, address)
	if m.panics[address] {
		panic("render exploded")
	}
	if err := ctx.Err(); err != nil {
		return nil, &RenderFailure{Address: address, Cause: err}
	}
	if err := m.errs[address]; err != nil {
		return nil, &RenderFailure{Address: address, Cause: err}
	}
	if doc, ok := m.docs[address]; ok {
		return doc, nil
	}
	return m.docs["*"], nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSession) renderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.renders)
}

// mockLauncher hands out the same session, or a fresh one per Open when
// newSession is set.
type mockLauncher struct {
	mu         sync.Mutex
	session    *mockSession
	newSession func() *mockSession
	opened     []*mockSession
	err        error
}

func (m *mockLauncher) Open(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	s := m.session
	if m.newSession != nil {
		s = m.newSession()
	}
	m.opened = append(m.opened, s)
	return s, nil
}

func (m *mockLauncher) openCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.opened)
}

type mockMarker struct {
	mu     sync.Mutex
	err    error
	called int
}

func (m *mockMarker) Stamp(doc []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called++
	if m.err != nil {
		return nil, &StampFailure{Cause: m.err}
	}
	return append(bytes.Clone(doc), "%stamped"...), nil
}

type putCall struct {
	bucket      string
	key         string
	data        []byte
	contentType string
	upsert      bool
}

type mockObjectStore struct {
	mu    sync.Mutex
	calls []putCall
	errs  map[string]error // by key
}

func (m *mockObjectStore) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, putCall{bucket, key, bytes.Clone(data), contentType, upsert})
	return m.errs[key]
}

func (m *mockObjectStore) PublicURL(bucket, key string) string {
	return "https://cdn.example.com/" + bucket + "/" + key
}

func (m *mockObjectStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockStore is an in-memory ArtifactStore.
type mockStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	writeErr error
	writes   int
}

func newMockStore() *mockStore {
	return &mockStore{files: map[string][]byte{}}
}

func (m *mockStore) Exists(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok
}

func (m *mockStore) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, ErrArtifactRead
	}
	return data, nil
}

func (m *mockStore) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return fmt.Errorf("%w: %v", ErrArtifactWrite, m.writeErr)
	}
	m.writes++
	m.files[key] = data
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// buildPDF assembles an uncompressed PDF with one empty page per size,
// with a valid cross-reference table.
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

	kids := ""
	for i := range sizes {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(sizes)))

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

// pngMark encodes a solid w x h PNG.
func pngMark(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}

// A4 and Letter in points.
var (
	a4Points     = [2]float64{595.28, 841.89}
	letterPoints = [2]float64{612, 792}
)
