// Package validate gates candidate uploads on declared MIME type and
// size before any work is spent on them.
package validate

import (
	"fmt"

	"github.com/courtsight/volleycoach/pkg/errs"
	"github.com/courtsight/volleycoach/pkg/types"
)

// MaxFileSize is the upload size ceiling.
const MaxFileSize = 10 << 20 // 10 MiB

// AcceptedTypes lists the MIME types the pipeline accepts. The declared
// type is trusted as-is; content sniffing is deliberately out of scope,
// so a spoofed type is not caught here.
var AcceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Check returns nil when the upload may enter the pipeline, or a
// validation error with a human-readable reason.
func Check(upload types.Upload) error {
	if !AcceptedTypes[upload.MIME] {
		return errs.New(errs.KindValidation,
			fmt.Sprintf("unsupported type %q: use JPEG, PNG or WebP", upload.MIME))
	}
	if upload.Size() > MaxFileSize {
		return errs.New(errs.KindValidation,
			fmt.Sprintf("file too large: %d bytes (max %d)", upload.Size(), MaxFileSize))
	}
	return nil
}
