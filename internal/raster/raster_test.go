package raster

import (
	"image"
	"image/color"
	"testing"
)

var red = color.NRGBA{255, 0, 0, 255}

func TestHLineClamped(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	// Extends past both edges without panicking.
	HLine(img, 5, -3, 20, red)
	if img.NRGBAAt(0, 5) != red || img.NRGBAAt(9, 5) != red {
		t.Error("expected the full row painted")
	}
	if img.NRGBAAt(0, 4) == red {
		t.Error("adjacent row painted")
	}

	// Fully off-canvas rows are ignored.
	HLine(img, -1, 0, 10, red)
	HLine(img, 10, 0, 10, red)
}

func TestFillCircle(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	FillCircle(img, 20, 20, 5, red)

	if img.NRGBAAt(20, 20) != red {
		t.Error("centre not filled")
	}
	if img.NRGBAAt(25, 20) != red {
		t.Error("edge of disc not filled")
	}
	if img.NRGBAAt(26, 20) == red {
		t.Error("painted outside the radius")
	}
}

func TestStrokeCircle(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	StrokeCircle(img, 20, 20, 10, 2, red)

	if img.NRGBAAt(30, 20) != red {
		t.Error("outer edge not stroked")
	}
	if img.NRGBAAt(29, 20) != red {
		t.Error("inner stroke row not painted")
	}
	if img.NRGBAAt(20, 20) == red {
		t.Error("interior filled by a stroke")
	}
}

func TestCenteredText(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 40))
	CenteredText(img, 50, 20, "X", red)

	painted := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			if img.NRGBAAt(x, y) == red {
				painted++
			}
		}
	}
	if painted == 0 {
		t.Error("expected glyph pixels to be painted")
	}
}
