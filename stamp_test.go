package brochure

// Notes:
// - The zero-page branch swaps pageDims because a PDF with an empty page
//   tree is rejected by most readers before it gets that far.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func writeMark(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestDecodeMark - Format sniffing
// ---------------------------------------------------------------------------

func TestDecodeMark(t *testing.T) {
	t.Parallel()

	t.Run("PNG", func(t *testing.T) {
		t.Parallel()

		m, err := DecodeMark(pngMark(t, 40, 20))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w, h := m.Size(); w != 40 || h != 20 {
			t.Errorf("Size() = %dx%d, want 40x20", w, h)
		}
		if m.Format() != "png" {
			t.Errorf("Format() = %q, want png", m.Format())
		}
	})

	t.Run("JPEG", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 4)), nil); err != nil {
			t.Fatal(err)
		}
		m, err := DecodeMark(buf.Bytes())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Format() != "jpeg" {
			t.Errorf("Format() = %q, want jpeg", m.Format())
		}
	})

	t.Run("not an image", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeMark([]byte("<svg/>"))
		if !errors.Is(err, ErrMarkDecode) {
			t.Errorf("expected ErrMarkDecode, got %v", err)
		}
	})
}

func TestLoadMark_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadMark(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, ErrMarkNotFound) {
		t.Errorf("expected ErrMarkNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestStamper_Stamp - Every page marked, sizes preserved
// ---------------------------------------------------------------------------

func TestStamper_Stamp(t *testing.T) {
	t.Parallel()

	t.Run("heterogeneous pages keep count and size", func(t *testing.T) {
		t.Parallel()

		doc := buildPDF(t, a4Points, letterPoints, a4Points)
		original := bytes.Clone(doc)
		s := NewStamper(writeMark(t, pngMark(t, 200, 100)), DefaultPlacement())

		out, err := s.Stamp(doc)
		if err != nil {
			t.Fatalf("Stamp() unexpected error: %v", err)
		}
		if !bytes.Equal(doc, original) {
			t.Error("Stamp() modified its input")
		}
		if bytes.Equal(out, doc) {
			t.Error("Stamp() returned the input unchanged")
		}

		dims, err := api.PageDims(bytes.NewReader(out), newPDFConfig())
		if err != nil {
			t.Fatalf("reading stamped document: %v", err)
		}
		want := [][2]float64{a4Points, letterPoints, a4Points}
		if len(dims) != len(want) {
			t.Fatalf("stamped document has %d pages, want %d", len(dims), len(want))
		}
		for i, d := range dims {
			if math.Abs(d.Width-want[i][0]) > 0.01 || math.Abs(d.Height-want[i][1]) > 0.01 {
				t.Errorf("page %d = %gx%g, want %gx%g", i+1, d.Width, d.Height, want[i][0], want[i][1])
			}
			r := s.Placement().Rect(d.Width, d.Height, 200, 100)
			if !r.Contains(d.Width, d.Height) {
				t.Errorf("page %d: mark rect %+v outside page", i+1, r)
			}
		}
	})

	t.Run("mark drawn inside placement rect on every page", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name         string
			corner       Corner
			markW, markH int
		}{
			{"bottom-right wide mark", BottomRight, 200, 100},
			{"top-left square mark", TopLeft, 40, 40},
			{"top-right tall mark", TopRight, 30, 90},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				placement := DefaultPlacement()
				placement.Corner = tt.corner
				s := NewStamperWithMark(mustDecodeMark(t, pngMark(t, tt.markW, tt.markH)), placement)

				pages := [][2]float64{a4Points, letterPoints}
				out, err := s.Stamp(buildPDF(t, pages...))
				if err != nil {
					t.Fatalf("Stamp() unexpected error: %v", err)
				}

				got := drawnMarkRects(t, out)
				if len(got) != len(pages) {
					t.Fatalf("found marks on %d pages, want %d", len(got), len(pages))
				}
				for i, page := range pages {
					want := placement.Rect(page[0], page[1], float64(tt.markW), float64(tt.markH))
					if !pointsNear(got[i], want) {
						t.Errorf("page %d: mark drawn at %+v, want %+v", i+1, got[i], want)
					}
				}
			})
		}
	})

	t.Run("zero pages returns an equivalent copy", func(t *testing.T) {
		t.Parallel()

		s := NewStamperWithMark(mustDecodeMark(t, pngMark(t, 10, 10)), DefaultPlacement())
		s.pageDims = func([]byte) ([]types.Dim, error) { return nil, nil }

		doc := []byte("%PDF-1.4 empty")
		out, err := s.Stamp(doc)
		if err != nil {
			t.Fatalf("Stamp() unexpected error: %v", err)
		}
		if !bytes.Equal(out, doc) {
			t.Errorf("Stamp() = %q, want %q", out, doc)
		}
		out[0] = 'X'
		if doc[0] != '%' {
			t.Error("Stamp() returned the input slice instead of a copy")
		}
	})

	t.Run("missing mark fails every call", func(t *testing.T) {
		t.Parallel()

		s := NewStamper(filepath.Join(t.TempDir(), "logo.png"), DefaultPlacement())
		doc := buildPDF(t, a4Points)
		for range 2 {
			out, err := s.Stamp(doc)
			var sf *StampFailure
			if !errors.As(err, &sf) || !errors.Is(err, ErrMarkNotFound) {
				t.Fatalf("expected StampFailure wrapping ErrMarkNotFound, got %v", err)
			}
			if out != nil {
				t.Error("Stamp() returned a document on failure")
			}
		}
	})

	t.Run("undecodable mark", func(t *testing.T) {
		t.Parallel()

		s := NewStamper(writeMark(t, []byte("not an image")), DefaultPlacement())
		_, err := s.Stamp(buildPDF(t, a4Points))
		if !errors.Is(err, ErrMarkDecode) {
			t.Errorf("expected ErrMarkDecode, got %v", err)
		}
	})

	t.Run("unreadable document", func(t *testing.T) {
		t.Parallel()

		s := NewStamperWithMark(mustDecodeMark(t, pngMark(t, 10, 10)), DefaultPlacement())
		_, err := s.Stamp([]byte("this is not a PDF"))
		var sf *StampFailure
		if !errors.As(err, &sf) || !errors.Is(err, ErrDocumentRead) {
			t.Errorf("expected StampFailure wrapping ErrDocumentRead, got %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestStamper_StampFile - In-place atomic replacement
// ---------------------------------------------------------------------------

func TestStamper_StampFile(t *testing.T) {
	t.Parallel()

	t.Run("replaces file with stamped document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "tokyo-3day.pdf")
		doc := buildPDF(t, a4Points)
		if err := os.WriteFile(path, doc, 0o600); err != nil {
			t.Fatal(err)
		}

		s := NewStamperWithMark(mustDecodeMark(t, pngMark(t, 20, 10)), DefaultPlacement())
		if err := s.StampFile(path); err != nil {
			t.Fatalf("StampFile() unexpected error: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Equal(got, doc) {
			t.Error("file was not stamped")
		}
	})

	t.Run("failure leaves file untouched", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "tokyo-3day.pdf")
		doc := buildPDF(t, a4Points)
		if err := os.WriteFile(path, doc, 0o600); err != nil {
			t.Fatal(err)
		}

		s := NewStamper(filepath.Join(t.TempDir(), "missing.png"), DefaultPlacement())
		if err := s.StampFile(path); !errors.Is(err, ErrMarkNotFound) {
			t.Fatalf("expected ErrMarkNotFound, got %v", err)
		}
		got, _ := os.ReadFile(path)
		if !bytes.Equal(got, doc) {
			t.Error("file changed after failed stamp")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		s := NewStamperWithMark(mustDecodeMark(t, pngMark(t, 20, 10)), DefaultPlacement())
		err := s.StampFile(filepath.Join(t.TempDir(), "missing.pdf"))
		if !errors.Is(err, ErrDocumentRead) {
			t.Errorf("expected ErrDocumentRead, got %v", err)
		}
	})
}

func mustDecodeMark(t *testing.T, data []byte) *Mark {
	t.Helper()
	m, err := DecodeMark(data)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// markDrawOp matches the operator sequence that paints the mark form:
// a transformation matrix followed by the form invocation.
var markDrawOp = regexp.MustCompile(
	`q\s+([-+\d.]+)\s+([-+\d.]+)\s+([-+\d.]+)\s+([-+\d.]+)\s+([-+\d.]+)\s+([-+\d.]+)\s+cm\s+/\S+\s+gs\s+/\S+\s+Do\s+Q`)

// drawnMarkRects returns, per page, the rectangle the mark occupies in the
// stamped document: the translation of the drawing operator applied to the
// bounding box of the form it paints.
func drawnMarkRects(t *testing.T, doc []byte) []Rect {
	t.Helper()

	dir := t.TempDir()
	if err := api.ExtractContent(bytes.NewReader(doc), dir, "stamped.pdf", nil, newPDFConfig()); err != nil {
		t.Fatalf("extracting page content: %v", err)
	}
	ctx, err := api.ReadAndValidate(bytes.NewReader(doc), newPDFConfig())
	if err != nil {
		t.Fatalf("reading stamped document: %v", err)
	}

	rects := make([]Rect, 0, ctx.PageCount)
	for p := 1; p <= ctx.PageCount; p++ {
		content, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("stamped_Content_page_%d.txt", p)))
		if err != nil {
			t.Fatalf("page %d: %v", p, err)
		}
		m := markDrawOp.FindSubmatch(content)
		if m == nil {
			t.Fatalf("page %d: no mark drawing operator in %q", p, content)
		}
		var matrix [6]float64
		for i := range matrix {
			if matrix[i], err = strconv.ParseFloat(string(m[i+1]), 64); err != nil {
				t.Fatalf("page %d: matrix entry %q: %v", p, m[i+1], err)
			}
		}
		if !near(matrix[0], 1) || !near(matrix[1], 0) || !near(matrix[2], 0) || !near(matrix[3], 1) {
			t.Fatalf("page %d: mark matrix %v is not a pure translation", p, matrix)
		}

		bbox := markFormBBox(t, ctx, p)
		rects = append(rects, Rect{
			X:      matrix[4] + bbox.LL.X,
			Y:      matrix[5] + bbox.LL.Y,
			Width:  bbox.Width(),
			Height: bbox.Height(),
		})
	}
	return rects
}

// markFormBBox returns the bounding box of the single form XObject that
// stamping adds to a page's resources.
func markFormBBox(t *testing.T, ctx *model.Context, pageNr int) *types.Rectangle {
	t.Helper()

	page, _, _, err := ctx.PageDict(pageNr, false)
	if err != nil {
		t.Fatalf("page %d: %v", pageNr, err)
	}
	res, err := ctx.DereferenceDictEntry(page, "Resources")
	if err != nil || res == nil {
		t.Fatalf("page %d: no resources: %v", pageNr, err)
	}
	resDict, err := ctx.DereferenceDict(res)
	if err != nil {
		t.Fatalf("page %d: resources: %v", pageNr, err)
	}
	xobjects, err := ctx.DereferenceDict(resDict["XObject"])
	if err != nil || len(xobjects) == 0 {
		t.Fatalf("page %d: no XObjects: %v", pageNr, err)
	}

	var bbox *types.Rectangle
	for name, obj := range xobjects {
		sd, _, err := ctx.DereferenceStreamDict(obj)
		if err != nil || sd == nil {
			t.Fatalf("page %d: XObject %s: %v", pageNr, name, err)
		}
		if st := sd.Dict.NameEntry("Subtype"); st == nil || *st != "Form" {
			continue
		}
		if bbox != nil {
			t.Fatalf("page %d: more than one form XObject", pageNr)
		}
		if bbox, err = ctx.RectForArray(sd.Dict.ArrayEntry("BBox")); err != nil {
			t.Fatalf("page %d: form %s BBox: %v", pageNr, name, err)
		}
	}
	if bbox == nil {
		t.Fatalf("page %d: no form XObject", pageNr)
	}
	return bbox
}

// near compares PDF coordinates, which pdfcpu writes with limited precision.
func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func pointsNear(a, b Rect) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Width, b.Width) && near(a.Height, b.Height)
}
