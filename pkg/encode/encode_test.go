package encode

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/courtsight/volleycoach/pkg/errs"
)

func TestBase64Payload(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a}
	encoded, err := Base64Payload(data)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("decoded payload does not match input")
	}
}

func TestBase64PayloadEmpty(t *testing.T) {
	_, err := Base64Payload(nil)
	if err == nil {
		t.Fatal("expected an error for empty input")
	}
	if errs.KindOf(err) != errs.KindEncoding {
		t.Errorf("expected encoding kind, got %s", errs.KindOf(err))
	}
}

func TestDataURL(t *testing.T) {
	got, err := DataURL("image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("failed to build data URL: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %q", got)
	}

	if _, err := DataURL("image/png", nil); err == nil {
		t.Error("expected an error for empty input")
	}
}
