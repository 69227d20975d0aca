// Package raster provides clamped NRGBA drawing primitives used by the
// annotation surface and the placeholder court generator.
package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HLine draws a horizontal line on [x0,x1) at row y, clamped to bounds.
func HLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

// VLine draws a vertical line on [y0,y1) at column x, clamped to bounds.
func VLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

// FillRect fills the rectangle [x0,x1)x[y0,y1).
func FillRect(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y < y1; y++ {
		HLine(img, y, x0, x1, c)
	}
}

// StrokeRect outlines the rectangle [x0,x1)x[y0,y1) with the given
// stroke width, drawn inward.
func StrokeRect(img *image.NRGBA, x0, y0, x1, y1, stroke int, c color.NRGBA) {
	for s := 0; s < stroke; s++ {
		HLine(img, y0+s, x0, x1, c)
		HLine(img, y1-1-s, x0, x1, c)
		VLine(img, x0+s, y0, y1, c)
		VLine(img, x1-1-s, y0, y1, c)
	}
}

// FillCircle fills a disc of radius r centered at (cx, cy).
func FillCircle(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for dy := -r; dy <= r; dy++ {
		dx := isqrt(r*r - dy*dy)
		HLine(img, cy+dy, cx-dx, cx+dx+1, c)
	}
}

// StrokeCircle draws a ring of the given stroke width whose outer edge
// has radius r.
func StrokeCircle(img *image.NRGBA, cx, cy, r, stroke int, c color.NRGBA) {
	inner := r - stroke
	if inner < 0 {
		inner = 0
	}
	outerSq, innerSq := r*r, inner*inner
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := dx*dx + dy*dy
			if d <= outerSq && d > innerSq {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// CenteredText draws label centered on (cx, cy) using the built-in
// 7x13 face.
func CenteredText(img *image.NRGBA, cx, cy int, label string, c color.NRGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.P(
			cx-width/2,
			cy+face.Metrics().Ascent.Ceil()-face.Metrics().Height.Ceil()/2,
		),
	}
	d.DrawString(label)
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Bounds().Dx() || y >= img.Bounds().Dy() {
		return
	}
	i := y*img.Stride + x*4
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

// isqrt returns the integer square root of n, 0 for negative input.
func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
