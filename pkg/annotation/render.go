package annotation

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/courtsight/volleycoach/internal/raster"
	"github.com/courtsight/volleycoach/pkg/types"
)

// Marker palette: fill, stroke and glyph per kind.
var (
	successFill   = color.NRGBA{34, 197, 94, 255}
	successStroke = color.NRGBA{21, 128, 61, 255}
	failureFill   = color.NRGBA{239, 68, 68, 255}
	failureStroke = color.NRGBA{185, 28, 28, 255}
	glyphColor    = color.NRGBA{255, 255, 255, 255}
)

// Render performs a full redraw: the base image first, then every
// marker in insertion order, so later markers draw on top of earlier
// ones at the same spot.
func (s *Surface) Render() *image.NRGBA {
	canvas := imaging.Clone(s.base)
	for _, m := range s.markers {
		drawMarker(canvas, m)
	}
	return canvas
}

func drawMarker(canvas *image.NRGBA, m types.Marker) {
	cx := int(m.X + 0.5)
	cy := int(m.Y + 0.5)

	fill, stroke, glyph := successFill, successStroke, "O"
	if m.Kind == types.Failure {
		fill, stroke, glyph = failureFill, failureStroke, "X"
	}

	raster.FillCircle(canvas, cx, cy, MarkerRadius, fill)
	raster.StrokeCircle(canvas, cx, cy, MarkerRadius, 2, stroke)
	raster.CenteredText(canvas, cx, cy, glyph, glyphColor)
}
