// Package compress bounds the payload size of an image before
// transmission by downscaling and re-encoding it in its source format.
package compress

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/courtsight/volleycoach/pkg/errs"
)

// Default bounds applied when an Options field is zero.
const (
	DefaultMaxWidth = 1920
	DefaultQuality  = 0.8
)

// Options controls the downscale bound and re-encode quality.
type Options struct {
	MaxWidth int
	Quality  float64 // in (0,1]
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	return o
}

// Compress decodes data, scales it down so the longest edge fits within
// opts.MaxWidth, and re-encodes it in the format named by mime at
// opts.Quality. Images already within bounds are re-encoded unscaled.
//
// The scale factor is min(MaxWidth/width, MaxWidth/height), so a very
// tall image shrinks more than a pure width bound would require.
//
// Any decode or encode failure returns a compression error; callers
// are expected to fall back to the original bytes rather than abort.
func Compress(data []byte, mime string, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	img, err := decodeBytes(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindCompression, "failed to decode image", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scaleW := float64(opts.MaxWidth) / float64(w)
	scaleH := float64(opts.MaxWidth) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	if scale < 1 {
		newW := int(float64(w)*scale + 0.5)
		newH := int(float64(h)*scale + 0.5)
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	}

	out, err := encodeAs(img, mime, opts.Quality)
	if err != nil {
		return nil, errs.Wrap(errs.KindCompression, "failed to re-encode image", err)
	}
	if len(out) == 0 {
		return nil, errs.New(errs.KindCompression, "re-encode produced no data")
	}
	return out, nil
}

// decodeBytes decodes with the registered stdlib decoders first, then
// falls back to an explicit WebP decode.
func decodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return webp.Decode(bytes.NewReader(data))
}

func encodeAs(img image.Image, mime string, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	switch mime {
	case "image/png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "image/webp":
		opts := &webp.Options{Quality: float32(quality * 100)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, err
		}
	default: // image/jpeg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(quality * 100)}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
