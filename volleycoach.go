// Package volleycoach turns an annotated court image into AI coaching
// feedback.
//
// The package combines an annotation canvas, a client-side image
// pipeline (validation, compression, base64 encoding) and a remote
// multimodal analysis call into one workflow.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		"github.com/courtsight/volleycoach"
//		"github.com/courtsight/volleycoach/pkg/types"
//	)
//
//	func main() {
//		coach, err := volleycoach.New(os.Getenv("GEMINI_API_KEY"))
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Load a court photo and place markers
//		surface, err := coach.NewSurfaceFromFile("court.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		surface.Click(320, 180) // success (default kind)
//		surface.SetKind(types.Failure)
//		surface.Click(520, 340) // failure
//
//		stats := surface.Stats()
//		fmt.Printf("success rate: %s\n", stats.RatePercent())
//
//		// Submit the flattened canvas for coaching analysis
//		result, err := coach.AnalyzeSurface(context.Background(), surface, "court.jpg", "")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(result.AnalysisText)
//	}
//
// The package consists of these components:
//
// 1. Annotation (pkg/annotation): the bounded canvas with typed markers
// 2. Pipeline (pkg/pipeline): validate, compress, encode, analyze, assemble
// 3. Clients (pkg/gemini, pkg/ollama): hosted and local analysis backends
// 4. Court (pkg/court): placeholder court image generator
//
// Failures carry an explicit kind tag (pkg/errs) so callers can tell a
// rejected credential from a rate limit without parsing messages.
package volleycoach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/courtsight/volleycoach/internal/logger"
	"github.com/courtsight/volleycoach/internal/utils"
	"github.com/courtsight/volleycoach/pkg/annotation"
	"github.com/courtsight/volleycoach/pkg/client"
	"github.com/courtsight/volleycoach/pkg/court"
	"github.com/courtsight/volleycoach/pkg/gemini"
	"github.com/courtsight/volleycoach/pkg/pipeline"
	"github.com/courtsight/volleycoach/pkg/types"
)

// Version of the volleycoach library
const Version = "1.0.0"

// CourtCoach provides a high-level interface over the annotation
// surface and the analysis pipeline.
type CourtCoach struct {
	orchestrator *pipeline.Orchestrator
	log          *logrus.Logger
}

// New creates a CourtCoach backed by the hosted endpoint with default
// settings. The API key is required and injected here, never read from
// ambient state.
func New(apiKey string) (*CourtCoach, error) {
	c, err := gemini.NewClient(apiKey, "", "")
	if err != nil {
		return nil, err
	}
	return NewWithClient(c, pipeline.Options{}, nil), nil
}

// NewWithClient creates a CourtCoach around any analysis backend, for
// custom pipelines and for tests.
func NewWithClient(c client.AnalysisClient, opts pipeline.Options, log *logrus.Logger) *CourtCoach {
	if log == nil {
		log = logger.New()
	}
	return &CourtCoach{
		orchestrator: pipeline.New(c, log, opts),
		log:          log,
	}
}

// NewSurface decodes image bytes into an annotation surface.
func (cc *CourtCoach) NewSurface(data []byte) (*annotation.Surface, error) {
	return annotation.NewSurface(data)
}

// NewSurfaceFromFile loads an image file into an annotation surface.
func (cc *CourtCoach) NewSurfaceFromFile(path string) (*annotation.Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return annotation.NewSurface(data)
}

// DefaultCourt returns the generated placeholder court upload.
func (cc *CourtCoach) DefaultCourt() (types.Upload, error) {
	return court.GenerateUpload()
}

// Analyze runs the full pipeline on an upload.
func (cc *CourtCoach) Analyze(ctx context.Context, upload types.Upload, instruction string) (*types.Analysis, error) {
	return cc.orchestrator.Run(ctx, upload, instruction)
}

// AnalyzeFile runs the full pipeline on an image file; the MIME type
// is taken from the extension.
func (cc *CourtCoach) AnalyzeFile(ctx context.Context, path, instruction string) (*types.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return cc.Analyze(ctx, types.Upload{
		Name: filepath.Base(path),
		MIME: utils.MIMEFromPath(path),
		Data: data,
	}, instruction)
}

// AnalyzeSurface flattens an annotated surface and runs the pipeline
// on the composited image.
func (cc *CourtCoach) AnalyzeSurface(ctx context.Context, s *annotation.Surface, name, instruction string) (*types.Analysis, error) {
	data, err := s.Flatten()
	if err != nil {
		return nil, err
	}
	return cc.Analyze(ctx, types.Upload{
		Name: name,
		MIME: "image/png",
		Data: data,
	}, instruction)
}

// Results returns the analysis record store, most recent first.
func (cc *CourtCoach) Results() *pipeline.Store {
	return cc.orchestrator.Results()
}

// Progress returns the current pipeline progress state.
func (cc *CourtCoach) Progress() types.Progress {
	return cc.orchestrator.Progress()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
