// Package court synthesizes the placeholder court image used when the
// caller has no photo at hand. The output is a valid PNG upload that
// passes pipeline validation.
package court

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/courtsight/volleycoach/internal/raster"
	"github.com/courtsight/volleycoach/pkg/types"
)

// Fixed geometry of the generated image.
const (
	Width  = 800
	Height = 600

	courtMargin = 60
	netBandHalf = 6
)

var (
	floorColor = color.NRGBA{222, 184, 135, 255} // wood tone
	lineColor  = color.NRGBA{255, 255, 255, 255}
	netColor   = color.NRGBA{40, 40, 40, 255}
	labelColor = color.NRGBA{30, 64, 175, 255}
)

// Generate draws the placeholder court: floor, boundary rectangle,
// centre line, attack lines, service zone marks, net mesh and team
// labels.
func Generate() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, Width, Height))
	raster.FillRect(img, 0, 0, Width, Height, floorColor)

	left, top := courtMargin, courtMargin
	right, bottom := Width-courtMargin, Height-courtMargin
	midY := (top + bottom) / 2

	// Boundary and centre line.
	raster.StrokeRect(img, left, top, right, bottom, 3, lineColor)
	raster.FillRect(img, left, midY-1, right, midY+2, lineColor)

	// Attack lines a third of a half-court from the centre.
	attackOffset := (bottom - top) / 6
	raster.FillRect(img, left, midY-attackOffset-1, right, midY-attackOffset+1, lineColor)
	raster.FillRect(img, left, midY+attackOffset-1, right, midY+attackOffset+1, lineColor)

	// Service zone marks on both end lines.
	for _, y := range []int{top, bottom - 12} {
		raster.VLine(img, left+(right-left)/4, y, y+12, lineColor)
		raster.VLine(img, left+3*(right-left)/4, y, y+12, lineColor)
	}

	// Net rendered as a horizontal mesh band over the centre line.
	raster.FillRect(img, left-10, midY-netBandHalf, right+10, midY+netBandHalf, netColor)
	for x := left - 10; x < right+10; x += 8 {
		raster.VLine(img, x, midY-netBandHalf, midY+netBandHalf, floorColor)
	}

	raster.CenteredText(img, Width/2, top+(midY-top)/2, "TEAM A", labelColor)
	raster.CenteredText(img, Width/2, midY+(bottom-midY)/2, "TEAM B", labelColor)

	return img
}

// GenerateUpload encodes the placeholder court as a PNG upload.
func GenerateUpload() (types.Upload, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Generate()); err != nil {
		return types.Upload{}, fmt.Errorf("failed to encode court image: %w", err)
	}
	return types.Upload{
		Name: "default-court.png",
		MIME: "image/png",
		Data: buf.Bytes(),
	}, nil
}
