// Package annotation implements the interactive canvas: a source image
// fitted onto a bounded surface with an editable set of typed point
// markers drawn over it.
package annotation

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/courtsight/volleycoach/pkg/errs"
	"github.com/courtsight/volleycoach/pkg/types"
)

// Canvas bounds; source images are fitted inside, never upscaled.
const (
	CanvasMaxWidth  = 800
	CanvasMaxHeight = 600
)

// MarkerRadius is both the rendered circle radius and the hit-test
// radius for removing an existing marker.
const MarkerRadius = 15

// Surface is an annotation canvas in the Ready state: the image has
// been decoded and fitted, and pointer edits are accepted.
//
// Surface is not safe for concurrent use; it models a single user's
// editing session.
type Surface struct {
	base    *image.NRGBA
	markers []types.Marker
	kind    types.MarkerKind
	nextID  int
}

// NewSurface decodes data and returns a Ready surface. The decode is
// the Loading state; a surface only exists once it succeeded.
func NewSurface(data []byte) (*Surface, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Explicit WebP fallback for environments where the decoder
		// registration was stripped.
		img, err = webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}
	return NewSurfaceFromImage(img), nil
}

// NewSurfaceFromImage fits img into the canvas box and returns a Ready
// surface with an empty marker set and the kind toggle on Success.
func NewSurfaceFromImage(img image.Image) *Surface {
	b := img.Bounds()
	if b.Dx() > CanvasMaxWidth || b.Dy() > CanvasMaxHeight {
		img = imaging.Fit(img, CanvasMaxWidth, CanvasMaxHeight, imaging.Lanczos)
	}
	return &Surface{
		base: imaging.Clone(img),
		kind: types.Success,
	}
}

// Size returns the canvas dimensions in pixels.
func (s *Surface) Size() (int, int) {
	return s.base.Bounds().Dx(), s.base.Bounds().Dy()
}

// SetKind selects the kind applied to the next added marker.
func (s *Surface) SetKind(kind types.MarkerKind) {
	s.kind = kind
}

// Kind returns the currently selected marker kind.
func (s *Surface) Kind() types.MarkerKind {
	return s.kind
}

// Click applies a pointer interaction at canvas coordinate (x, y).
//
// If any existing marker lies within MarkerRadius (Euclidean, ties
// broken by insertion order) that marker is removed and no marker is
// added; removed reports which way the toggle went. Otherwise a new
// marker of the selected kind is appended at (x, y).
//
// The marker slice is replaced wholesale on every edit.
func (s *Surface) Click(x, y float64) (removed bool) {
	for i, m := range s.markers {
		if math.Hypot(m.X-x, m.Y-y) <= MarkerRadius {
			next := make([]types.Marker, 0, len(s.markers)-1)
			next = append(next, s.markers[:i]...)
			next = append(next, s.markers[i+1:]...)
			s.markers = next
			return true
		}
	}
	s.nextID++
	marker := types.Marker{
		X:    x,
		Y:    y,
		Kind: s.kind,
		ID:   fmt.Sprintf("%d-%d", time.Now().UnixMilli(), s.nextID),
	}
	next := make([]types.Marker, 0, len(s.markers)+1)
	next = append(next, s.markers...)
	s.markers = append(next, marker)
	return false
}

// Undo removes the most recently added marker. No-op on an empty set.
func (s *Surface) Undo() {
	if len(s.markers) == 0 {
		return
	}
	next := make([]types.Marker, len(s.markers)-1)
	copy(next, s.markers[:len(s.markers)-1])
	s.markers = next
}

// Clear removes all markers. No-op on an empty set.
func (s *Surface) Clear() {
	if len(s.markers) == 0 {
		return
	}
	s.markers = nil
}

// Markers returns a copy of the marker set in insertion order.
func (s *Surface) Markers() []types.Marker {
	out := make([]types.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Stats recomputes the derived counters from the current marker set.
// They are never stored separately, so they cannot drift.
func (s *Surface) Stats() types.MarkerStats {
	var stats types.MarkerStats
	for _, m := range s.markers {
		if m.Kind == types.Success {
			stats.Successes++
		} else {
			stats.Failures++
		}
	}
	if total := stats.Successes + stats.Failures; total > 0 {
		stats.Rate = float64(stats.Successes) / float64(total)
	}
	return stats
}

// Flatten rasterizes the current canvas (image plus all markers) into
// a single PNG blob. It fails when no markers exist; the unannotated
// submit path lives in the upload flow, not here.
func (s *Surface) Flatten() ([]byte, error) {
	if len(s.markers) == 0 {
		return nil, errs.New(errs.KindValidation, "place at least one marker before exporting")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Render()); err != nil {
		return nil, fmt.Errorf("failed to encode canvas: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTo flattens the canvas and writes it to path (the download path).
func (s *Surface) SaveTo(path string) error {
	data, err := s.Flatten()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
