package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtsight/volleycoach/pkg/errs"
	"github.com/courtsight/volleycoach/pkg/types"
)

// stubClient returns a fixed reply or error and records what it was
// handed.
type stubClient struct {
	reply   string
	err     error
	calls   int
	gotMIME string
	gotB64  string
	block   chan struct{} // when set, Analyze waits until closed
}

func (s *stubClient) Analyze(ctx context.Context, mimeType, imageB64, instruction string) (string, error) {
	s.calls++
	s.gotMIME = mimeType
	s.gotB64 = imageB64
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pngUpload(t *testing.T, w, h int) types.Upload {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return types.Upload{Name: "court.png", MIME: "image/png", Data: buf.Bytes()}
}

func newTestOrchestrator(t *testing.T, c *stubClient, opts Options) *Orchestrator {
	t.Helper()
	opts.ArtifactDir = t.TempDir()
	return New(c, quietLogger(), opts)
}

func TestRunSmallUploadSkipsCompression(t *testing.T) {
	c := &stubClient{reply: "Good spread on the left side."}
	var seen []types.Progress
	o := newTestOrchestrator(t, c, Options{
		OnProgress: func(p types.Progress) { seen = append(seen, p) },
	})

	upload := pngUpload(t, 200, 150) // well under the compression threshold
	analysis, err := o.Run(context.Background(), upload, "")
	require.NoError(t, err)

	assert.Equal(t, "Good spread on the left side.", analysis.AnalysisText)
	assert.Equal(t, "court.png", analysis.FileName)
	assert.NotEmpty(t, analysis.ID)
	assert.FileExists(t, analysis.ImagePath)

	// The client received the original bytes untouched.
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, "image/png", c.gotMIME)
	assert.Equal(t, base64.StdEncoding.EncodeToString(upload.Data), c.gotB64)

	require.Equal(t, 1, o.Results().Len())
	assert.Equal(t, analysis.ID, o.Results().List()[0].ID)

	// Phases walked forward and percent never decreased.
	require.NotEmpty(t, seen)
	assert.Equal(t, types.PhaseUploading, seen[0].Phase)
	last := seen[len(seen)-1]
	assert.Equal(t, types.PhaseComplete, last.Phase)
	assert.Equal(t, 100, last.Percent)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].Percent, seen[i-1].Percent)
	}
}

func TestRunRejectsOversizeUpload(t *testing.T) {
	c := &stubClient{reply: "unused"}
	o := newTestOrchestrator(t, c, Options{})

	upload := types.Upload{
		Name: "match.jpg",
		MIME: "image/jpeg",
		Data: make([]byte, 11<<20),
	}
	_, err := o.Run(context.Background(), upload, "")
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	// The remote service was never contacted and nothing was stored.
	assert.Equal(t, 0, c.calls)
	assert.Equal(t, 0, o.Results().Len())
	assert.Equal(t, types.PhaseError, o.Progress().Phase)
}

func TestRunAnalysisFailure(t *testing.T) {
	c := &stubClient{err: errs.New(errs.KindRateLimited, "rate limit exceeded: wait a moment and resubmit")}
	o := newTestOrchestrator(t, c, Options{})

	_, err := o.Run(context.Background(), pngUpload(t, 100, 100), "")
	require.Error(t, err)
	assert.Equal(t, errs.KindRateLimited, errs.KindOf(err))

	assert.Equal(t, 0, o.Results().Len())
	p := o.Progress()
	assert.Equal(t, types.PhaseError, p.Phase)
	assert.Contains(t, p.Message, "rate limit")

	// The error state is sticky; no automatic return to Idle.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, types.PhaseError, o.Progress().Phase)
}

func TestRunCompressionFallback(t *testing.T) {
	c := &stubClient{reply: "analysis text"}
	o := newTestOrchestrator(t, c, Options{})

	// Oversize but undecodable: compression fails and the original
	// bytes are sent instead of aborting the run.
	junk := make([]byte, CompressThreshold+1)
	upload := types.Upload{Name: "big.jpg", MIME: "image/jpeg", Data: junk}

	analysis, err := o.Run(context.Background(), upload, "")
	require.NoError(t, err)
	assert.Equal(t, "analysis text", analysis.AnalysisText)
	assert.Equal(t, base64.StdEncoding.EncodeToString(junk), c.gotB64)
}

func TestRunResetsToIdle(t *testing.T) {
	c := &stubClient{reply: "ok"}
	o := newTestOrchestrator(t, c, Options{ResetDelay: 20 * time.Millisecond})

	_, err := o.Run(context.Background(), pngUpload(t, 100, 100), "")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseComplete, o.Progress().Phase)

	assert.Eventually(t, func() bool {
		return o.Progress().Phase == types.PhaseIdle
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, o.Progress().Percent)
}

func TestRunRejectsOverlap(t *testing.T) {
	c := &stubClient{reply: "ok", block: make(chan struct{})}
	o := newTestOrchestrator(t, c, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), pngUpload(t, 100, 100), "")
		done <- err
	}()

	// Wait for the first run to reach the blocked analysis call, then
	// try to start a second one.
	require.Eventually(t, func() bool {
		return o.Progress().Phase == types.PhaseAnalyzing
	}, time.Second, 5*time.Millisecond)

	_, err := o.Run(context.Background(), pngUpload(t, 100, 100), "")
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	close(c.block)
	require.NoError(t, <-done)

	// Once the first run finished, new runs are accepted again.
	c.block = nil
	_, err = o.Run(context.Background(), pngUpload(t, 100, 100), "")
	require.NoError(t, err)
	assert.Equal(t, 2, o.Results().Len())
}

func TestStoreRemoveReleasesArtifact(t *testing.T) {
	c := &stubClient{reply: "ok"}
	o := newTestOrchestrator(t, c, Options{})

	first, err := o.Run(context.Background(), pngUpload(t, 100, 100), "")
	require.NoError(t, err)
	second, err := o.Run(context.Background(), pngUpload(t, 100, 100), "")
	require.NoError(t, err)

	// Most recent first.
	list := o.Results().List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	firstPath := first.ImagePath
	assert.True(t, o.Results().Remove(first.ID))
	assert.False(t, o.Results().Remove(first.ID))
	assert.Equal(t, 1, o.Results().Len())
	assert.NoFileExists(t, firstPath)

	secondPath := second.ImagePath
	o.Results().Clear()
	assert.Equal(t, 0, o.Results().Len())
	assert.NoFileExists(t, secondPath)
}

func TestAnalysisReleaseTolerant(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "artifact-*.png")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	a := &types.Analysis{ID: "x", ImagePath: f.Name()}
	require.NoError(t, a.Release())
	assert.NoFileExists(t, f.Name())

	// Releasing twice, or with no artifact, is not an error.
	require.NoError(t, a.Release())
	require.NoError(t, (&types.Analysis{ID: "y"}).Release())
}

func TestFormatProgress(t *testing.T) {
	got := FormatProgress(types.Progress{Percent: 60, Phase: types.PhaseAnalyzing, Message: "analyzing image"})
	assert.Equal(t, "[ 60%] analyzing: analyzing image", got)

	got = FormatProgress(types.Progress{Phase: types.PhaseIdle})
	assert.Equal(t, "[  0%] idle", got)
}
