package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/courtsight/volleycoach"
	"github.com/courtsight/volleycoach/internal/config"
	"github.com/courtsight/volleycoach/internal/logger"
	"github.com/courtsight/volleycoach/internal/utils"
	"github.com/courtsight/volleycoach/pkg/annotation"
	"github.com/courtsight/volleycoach/pkg/client"
	"github.com/courtsight/volleycoach/pkg/compress"
	"github.com/courtsight/volleycoach/pkg/court"
	"github.com/courtsight/volleycoach/pkg/gemini"
	"github.com/courtsight/volleycoach/pkg/ollama"
	"github.com/courtsight/volleycoach/pkg/pipeline"
	"github.com/courtsight/volleycoach/pkg/types"
)

func main() {
	var in, outDir, markers, prompt, backend, url, model, key, cfgPath string
	var noAnalyze bool

	flag.StringVar(&in, "in", "", "input court image (jpg/png/webp); empty generates the placeholder court")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&markers, "markers", "", "markers to place: \"x,y[,success|failure];...\"")
	flag.StringVar(&prompt, "prompt", "", "custom analysis instruction (default: coaching prompt)")
	flag.StringVar(&backend, "backend", "", "analysis backend: gemini or ollama (default from config)")
	flag.StringVar(&url, "url", "", "backend base URL (defaults per backend)")
	flag.StringVar(&model, "model", "", "model name (defaults per backend)")
	flag.StringVar(&key, "key", "", "API key for the hosted backend (default: GEMINI_API_KEY)")
	flag.StringVar(&cfgPath, "config", "", "config file (default: "+config.GetConfigPath()+")")
	flag.BoolVar(&noAnalyze, "no-analyze", false, "annotate and export only, skip the remote call")
	flag.Parse()

	log := logger.New()

	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env")
	}

	cfg := loadConfig(cfgPath)
	if backend != "" {
		cfg.Analysis.Backend = backend
	}
	if url != "" {
		cfg.Analysis.BaseURL = url
	}
	if model != "" {
		cfg.Analysis.Model = model
	}
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key != "" {
		cfg.Analysis.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := utils.EnsureDir(outDir); err != nil {
		log.Fatalf("cannot create output directory: %v", err)
	}

	upload := loadUpload(in, log)
	log.WithFields(map[string]interface{}{
		"file": upload.Name,
		"size": utils.FormatFileSize(upload.Size()),
	}).Info("image loaded")

	surface, err := annotation.NewSurface(upload.Data)
	if err != nil {
		log.Fatalf("cannot open annotation surface: %v", err)
	}

	if markers != "" {
		applyMarkers(surface, markers, log)
		stats := surface.Stats()
		log.WithFields(map[string]interface{}{
			"successes": stats.Successes,
			"failures":  stats.Failures,
			"rate":      stats.RatePercent(),
		}).Info("markers placed")

		annotatedPath := filepath.Join(outDir, "annotated.png")
		if err := surface.SaveTo(annotatedPath); err != nil {
			log.Fatalf("export failed: %v", err)
		}
		log.Infof("wrote %s", annotatedPath)
	}

	if noAnalyze {
		return
	}

	backendClient := buildClient(cfg, log)
	coach := volleycoach.NewWithClient(backendClient, pipeline.Options{
		Compress: compress.Options{
			MaxWidth: cfg.Pipeline.MaxWidth,
			Quality:  cfg.Pipeline.Quality,
		},
		ResetDelay:  cfg.ResetDelay(),
		ArtifactDir: cfg.Output.ArtifactDir,
		OnProgress: func(p types.Progress) {
			fmt.Fprintln(os.Stderr, pipeline.FormatProgress(p))
		},
	}, log)

	var result *types.Analysis
	if markers != "" {
		result, err = coach.AnalyzeSurface(context.Background(), surface, upload.Name, prompt)
	} else {
		// Unannotated direct-submit path.
		result, err = coach.Analyze(context.Background(), upload, prompt)
	}
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	fmt.Println()
	fmt.Println(result.AnalysisText)

	js, _ := json.MarshalIndent(result, "", "  ")
	resultPath := filepath.Join(outDir, "analysis.json")
	if err := os.WriteFile(resultPath, js, 0o644); err != nil {
		log.Warnf("could not write %s: %v", resultPath, err)
	} else {
		log.Infof("wrote %s", resultPath)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", path, err)
		os.Exit(1)
	}
	return cfg
}

func loadUpload(in string, log *logrus.Logger) types.Upload {
	if in == "" {
		upload, err := court.GenerateUpload()
		if err != nil {
			log.Fatalf("cannot generate placeholder court: %v", err)
		}
		return upload
	}
	data, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("cannot read %s: %v", in, err)
	}
	return types.Upload{
		Name: filepath.Base(in),
		MIME: utils.MIMEFromPath(in),
		Data: data,
	}
}

func buildClient(cfg *config.Config, log *logrus.Logger) client.AnalysisClient {
	switch cfg.Analysis.Backend {
	case "ollama":
		url := cfg.Analysis.BaseURL
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url, cfg.Analysis.Model)
		if err != nil {
			log.Fatalf("cannot create ollama client: %v", err)
		}
		return c
	default:
		c, err := gemini.NewClient(cfg.Analysis.APIKey, cfg.Analysis.BaseURL, cfg.Analysis.Model)
		if err != nil {
			log.Fatalf("cannot create analysis client: %v", err)
		}
		return c
	}
}

// applyMarkers parses "x,y[,kind];..." and replays the clicks onto the
// surface.
func applyMarkers(surface *annotation.Surface, list string, log *logrus.Logger) {
	for _, entry := range strings.Split(list, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) < 2 {
			log.Fatalf("bad marker %q: want x,y[,success|failure]", entry)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errX != nil || errY != nil {
			log.Fatalf("bad marker coordinates %q", entry)
		}
		kind := types.Success
		if len(parts) > 2 {
			switch strings.ToLower(strings.TrimSpace(parts[2])) {
			case "success", "o":
				kind = types.Success
			case "failure", "x":
				kind = types.Failure
			default:
				log.Fatalf("bad marker kind %q", parts[2])
			}
		}
		surface.SetKind(kind)
		surface.Click(x, y)
	}
}
