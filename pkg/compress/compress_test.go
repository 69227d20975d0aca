package compress

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/courtsight/volleycoach/pkg/errs"
)

func encodeTestImage(t *testing.T, w, h int, mime string) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	var err error
	switch mime {
	case "image/png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestCompressDownscalesWideImage(t *testing.T) {
	data := encodeTestImage(t, 3000, 1000, "image/jpeg")

	out, err := Compress(data, "image/jpeg", Options{MaxWidth: 1920, Quality: 0.8})
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	w, h := decodedSize(t, out)
	if w > 1920 {
		t.Errorf("width %d exceeds bound 1920", w)
	}
	gotRatio := float64(w) / float64(h)
	wantRatio := 3.0
	if math.Abs(gotRatio-wantRatio) > 0.02 {
		t.Errorf("aspect ratio changed: got %.3f want %.3f", gotRatio, wantRatio)
	}
}

func TestCompressShrinksTallImage(t *testing.T) {
	// The scale factor bounds both edges by MaxWidth, so a tall image
	// shrinks even though its width is already within the limit.
	data := encodeTestImage(t, 1000, 3000, "image/jpeg")

	out, err := Compress(data, "image/jpeg", Options{MaxWidth: 1920, Quality: 0.8})
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	w, h := decodedSize(t, out)
	if h != 1920 {
		t.Errorf("expected height 1920, got %d", h)
	}
	if w != 640 {
		t.Errorf("expected width 640, got %d", w)
	}
}

func TestCompressKeepsSmallImageUnscaled(t *testing.T) {
	data := encodeTestImage(t, 640, 480, "image/png")

	out, err := Compress(data, "image/png", Options{})
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	w, h := decodedSize(t, out)
	if w != 640 || h != 480 {
		t.Errorf("expected 640x480 unchanged, got %dx%d", w, h)
	}
}

func TestCompressInvalidData(t *testing.T) {
	_, err := Compress([]byte("not an image at all"), "image/jpeg", Options{})
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if errs.KindOf(err) != errs.KindCompression {
		t.Errorf("expected compression kind, got %s", errs.KindOf(err))
	}
}
