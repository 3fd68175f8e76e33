package brochure

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io/fs"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/alnah/go-brochure/internal/fileutil"
)

// Mark is a decoded mark image.
type Mark struct {
	data   []byte
	width  int
	height int
	format string
}

// Size returns the image dimensions in pixels.
func (m *Mark) Size() (width, height int) { return m.width, m.height }

// Format returns the sniffed image format ("png" or "jpeg").
func (m *Mark) Format() string { return m.format }

// DecodeMark sniffs and validates a PNG or JPEG mark image.
func DecodeMark(data []byte) (*Mark, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarkDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrMarkDecode, cfg.Width, cfg.Height)
	}
	return &Mark{data: data, width: cfg.Width, height: cfg.Height, format: format}, nil
}

// LoadMark reads and decodes the mark image at path.
func LoadMark(path string) (*Mark, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided mark path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMarkNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrMarkDecode, err)
	}
	return DecodeMark(data)
}

// Stamper composites a mark onto every page of a PDF.
type Stamper struct {
	markPath  string
	mark      *Mark
	placement Placement

	// pageDims is swapped by tests.
	pageDims func(doc []byte) ([]types.Dim, error)
}

// NewStamper creates a Stamper that reads the mark from markPath on every
// call, so a missing file fails each stamp instead of the whole process.
func NewStamper(markPath string, placement Placement) *Stamper {
	return &Stamper{markPath: markPath, placement: placement, pageDims: pdfPageDims}
}

// NewStamperWithMark creates a Stamper around an already decoded mark.
func NewStamperWithMark(mark *Mark, placement Placement) *Stamper {
	return &Stamper{mark: mark, placement: placement, pageDims: pdfPageDims}
}

// Placement returns the placement applied to every page.
func (s *Stamper) Placement() Placement { return s.placement }

// Stamp returns a copy of doc with the mark on every page. The input slice
// is never modified. Failures are *StampFailure; no partially stamped
// document is ever returned.
func (s *Stamper) Stamp(doc []byte) ([]byte, error) {
	mark := s.mark
	if mark == nil {
		var err error
		if mark, err = LoadMark(s.markPath); err != nil {
			return nil, &StampFailure{Cause: err}
		}
	}

	dims, err := s.pageDims(doc)
	if err != nil {
		return nil, &StampFailure{Cause: fmt.Errorf("%w: %v", ErrDocumentRead, err)}
	}
	if len(dims) == 0 {
		return bytes.Clone(doc), nil
	}

	watermarks := make(map[int]*model.Watermark, len(dims))
	for i, dim := range dims {
		wm, err := s.watermarkFor(mark, dim)
		if err != nil {
			return nil, &StampFailure{Cause: fmt.Errorf("%w: page %d: %v", ErrStampApply, i+1, err)}
		}
		watermarks[i+1] = wm
	}

	var out bytes.Buffer
	if err := api.AddWatermarksMap(bytes.NewReader(doc), &out, watermarks, newPDFConfig()); err != nil {
		return nil, &StampFailure{Cause: fmt.Errorf("%w: %v", ErrStampApply, err)}
	}
	return out.Bytes(), nil
}

// watermarkFor builds the image watermark for one page. The rectangle is
// expressed as an absolute scale of the image and an offset of its
// lower-left corner from the page's lower-left corner.
func (s *Stamper) watermarkFor(mark *Mark, dim types.Dim) (*model.Watermark, error) {
	r := s.placement.Rect(dim.Width, dim.Height, float64(mark.width), float64(mark.height))
	desc := fmt.Sprintf("position:bl, offset:%.3f %.3f, scalefactor:%.6f abs, rotation:0, opacity:%.2f",
		r.X, r.Y, r.Width/float64(mark.width), s.placement.Opacity)
	return api.ImageWatermarkForReader(bytes.NewReader(mark.data), desc, true, false, types.POINTS)
}

// StampFile stamps the PDF at path in place. The replacement is atomic: a
// concurrent reader sees either the original or the stamped document.
func (s *Stamper) StampFile(path string) error {
	doc, err := os.ReadFile(path) // #nosec G304 -- caller-provided artifact path
	if err != nil {
		return &StampFailure{Cause: fmt.Errorf("%w: %v", ErrDocumentRead, err)}
	}
	stamped, err := s.Stamp(doc)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, stamped, fileutil.FilePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	return nil
}

var disablePDFConfigDir sync.Once

// newPDFConfig returns a fresh pdfcpu configuration. pdfcpu mutates the
// configuration it is handed, so concurrent stamps never share one.
func newPDFConfig() *model.Configuration {
	disablePDFConfigDir.Do(func() { model.ConfigPath = "disable" })
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func pdfPageDims(doc []byte) ([]types.Dim, error) {
	return api.PageDims(bytes.NewReader(doc), newPDFConfig())
}
