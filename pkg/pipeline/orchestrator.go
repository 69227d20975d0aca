// Package pipeline sequences the full analysis run — validate,
// compress, encode, call the model, assemble the record — and exposes
// the observable progress state and the result list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/courtsight/volleycoach/pkg/client"
	"github.com/courtsight/volleycoach/pkg/compress"
	"github.com/courtsight/volleycoach/pkg/encode"
	"github.com/courtsight/volleycoach/pkg/errs"
	"github.com/courtsight/volleycoach/pkg/types"
	"github.com/courtsight/volleycoach/pkg/validate"
)

// CompressThreshold is the input size above which compression runs;
// smaller payloads bypass it entirely.
const CompressThreshold = 2 << 20 // 2 MiB

// DefaultResetDelay is how long a Complete phase is displayed before
// the automatic return to Idle.
const DefaultResetDelay = 2 * time.Second

// ErrAnalysisInFlight is returned when Run is called while a previous
// run has not finished. Overlapping runs are rejected, not queued.
var ErrAnalysisInFlight = errors.New("an analysis is already in flight")

// Fixed metadata attached to every assembled record.
var (
	resultConfidence = 0.95
	resultTags       = []string{"coaching", "heatmap"}
)

// Options configures an Orchestrator.
type Options struct {
	Compress    compress.Options
	ResetDelay  time.Duration         // 0 means DefaultResetDelay
	OnProgress  func(types.Progress)  // invoked on every phase boundary
	ArtifactDir string                // image artifact dir, default os.TempDir()
}

// Orchestrator drives analysis runs end to end. At most one run is in
// flight at a time.
type Orchestrator struct {
	client client.AnalysisClient
	store  *Store
	log    *logrus.Logger
	opts   Options

	inFlight atomic.Bool

	mu         sync.Mutex
	progress   types.Progress
	resetTimer *time.Timer
}

// New creates an Orchestrator around the given analysis client.
func New(c client.AnalysisClient, log *logrus.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.ArtifactDir == "" {
		opts.ArtifactDir = os.TempDir()
	}
	return &Orchestrator{
		client:   c,
		store:    NewStore(),
		log:      log,
		opts:     opts,
		progress: types.Progress{Phase: types.PhaseIdle},
	}
}

// Results returns the store of assembled analysis records.
func (o *Orchestrator) Results() *Store {
	return o.store
}

// Progress returns the current progress state.
func (o *Orchestrator) Progress() types.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Run drives the pipeline for one upload. Phases execute strictly in
// sequence; every fatal failure short-circuits the rest and sets the
// Error phase. A compression failure is recovered by falling back to
// the original bytes. On success the record is prepended to the result
// store and a return to Idle is scheduled.
func (o *Orchestrator) Run(ctx context.Context, upload types.Upload, instruction string) (*types.Analysis, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInFlight
	}
	defer o.inFlight.Store(false)

	o.beginRun()
	o.setProgress(10, types.PhaseUploading, "validating image")

	if err := validate.Check(upload); err != nil {
		return nil, o.fail(err)
	}

	data := upload.Data
	if upload.Size() > CompressThreshold {
		o.setProgress(25, types.PhaseUploading, "compressing image")
		compressed, err := compress.Compress(data, upload.MIME, o.opts.Compress)
		if err != nil {
			// Recoverable: continue with the original bytes.
			o.log.WithError(err).WithField("file", upload.Name).
				Warn("compression failed, sending original image")
		} else {
			data = compressed
		}
	}

	o.setProgress(40, types.PhaseUploading, "encoding image")
	payload, err := encode.Base64Payload(data)
	if err != nil {
		return nil, o.fail(err)
	}

	o.setProgress(60, types.PhaseAnalyzing, "analyzing image")
	text, err := o.client.Analyze(ctx, upload.MIME, payload, instruction)
	if err != nil {
		return nil, o.fail(err)
	}

	o.setProgress(90, types.PhaseAnalyzing, "assembling result")
	analysis, err := o.assemble(upload, data, text)
	if err != nil {
		return nil, o.fail(err)
	}
	o.store.Add(analysis)

	o.setProgress(100, types.PhaseComplete, "analysis complete")
	o.log.WithFields(logrus.Fields{
		"id":   analysis.ID,
		"file": analysis.FileName,
	}).Info("analysis complete")
	o.scheduleReset()
	return analysis, nil
}

// assemble writes the analyzed image to a temp artifact owned by the
// record and fills in the metadata.
func (o *Orchestrator) assemble(upload types.Upload, data []byte, text string) (*types.Analysis, error) {
	f, err := os.CreateTemp(o.opts.ArtifactDir, "volleycoach-*"+artifactExt(upload.MIME))
	if err != nil {
		return nil, errs.Wrap(errs.KindUnknown, "failed to store analyzed image", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errs.Wrap(errs.KindUnknown, "failed to store analyzed image", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, errs.Wrap(errs.KindUnknown, "failed to store analyzed image", err)
	}

	return &types.Analysis{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		ImagePath:    f.Name(),
		FileName:     upload.Name,
		AnalysisText: text,
		Confidence:   resultConfidence,
		Tags:         append([]string(nil), resultTags...),
	}, nil
}

func artifactExt(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// beginRun resets the progress machine for a fresh run and cancels any
// pending return-to-idle timer from the previous one.
func (o *Orchestrator) beginRun() {
	o.mu.Lock()
	if o.resetTimer != nil {
		o.resetTimer.Stop()
		o.resetTimer = nil
	}
	o.progress = types.Progress{Phase: types.PhaseIdle}
	o.mu.Unlock()
}

// setProgress advances the progress state. Percent never decreases
// within a run.
func (o *Orchestrator) setProgress(percent int, phase types.Phase, message string) {
	o.mu.Lock()
	if percent < o.progress.Percent {
		percent = o.progress.Percent
	}
	o.progress = types.Progress{Percent: percent, Phase: phase, Message: message}
	p := o.progress
	cb := o.opts.OnProgress
	o.mu.Unlock()

	o.log.WithFields(logrus.Fields{
		"phase":   phase,
		"percent": percent,
	}).Debug(message)
	if cb != nil {
		cb(p)
	}
}

// fail records the fatal error in the progress state and returns it.
// The result list is left untouched.
func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.progress = types.Progress{
		Percent: o.progress.Percent,
		Phase:   types.PhaseError,
		Message: errs.Message(err),
	}
	p := o.progress
	cb := o.opts.OnProgress
	o.mu.Unlock()

	o.log.WithError(err).Error("analysis failed")
	if cb != nil {
		cb(p)
	}
	return err
}

// scheduleReset arms the automatic return to Idle after the display
// delay, unless another run has started in the meantime.
func (o *Orchestrator) scheduleReset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resetTimer = time.AfterFunc(o.opts.ResetDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.progress.Phase == types.PhaseComplete {
			o.progress = types.Progress{Phase: types.PhaseIdle}
		}
	})
}

// FormatProgress renders a progress value for terminal display.
func FormatProgress(p types.Progress) string {
	if p.Message == "" {
		return fmt.Sprintf("[%3d%%] %s", p.Percent, p.Phase)
	}
	return fmt.Sprintf("[%3d%%] %s: %s", p.Percent, p.Phase, p.Message)
}
