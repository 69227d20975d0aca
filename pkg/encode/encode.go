// Package encode converts image bytes into the transport encodings the
// remote endpoint expects.
package encode

import (
	"encoding/base64"
	"fmt"

	"github.com/courtsight/volleycoach/pkg/errs"
)

// Base64Payload returns the base64 payload portion of a data URL, i.e.
// the encoding without any "data:<mime>;base64," prefix. One encode per
// call, no batching.
func Base64Payload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errs.New(errs.KindEncoding, "cannot encode an empty file")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DataURL returns the full data URL for callers that need one.
func DataURL(mime string, data []byte) (string, error) {
	payload, err := Base64Payload(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, payload), nil
}
