// Package generator turns a website brief into named static-site files by
// calling a text-generation backend and defensively parsing its reply.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "autosite/internal/common/errors"
	"autosite/internal/common/logger"
)

// Config holds generation settings.
type Config struct {
	Timeout       time.Duration
	RequiredFiles []string
}

// Generator calls the selected backend and parses the reply into SiteFiles.
type Generator struct {
	backend TextBackend
	config  Config
	logger  logger.Logger
}

func New(backend TextBackend, config Config, log logger.Logger) *Generator {
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if len(config.RequiredFiles) == 0 {
		config.RequiredFiles = []string{"index.html", "style.css", "script.js"}
	}
	return &Generator{
		backend: backend,
		config:  config,
		logger: log.With(map[string]interface{}{
			"component": "generator",
			"backend":   backend.Name(),
		}),
	}
}

// Generate produces the site files for one brief. All failure modes map to
// GENERATION_* errors for the coordinator's retry policy.
func (g *Generator) Generate(ctx context.Context, brief, task string) (SiteFiles, error) {
	prompt := BuildSitePrompt(brief, task, g.config.RequiredFiles)

	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	started := time.Now()
	raw, err := g.backend.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewGenerationTimeoutError()
		}
		return nil, apperrors.NewGenerationFailedError(err)
	}

	files, err := ParseSiteFiles(raw, g.config.RequiredFiles)
	if err != nil {
		return nil, err
	}

	g.logger.Info("site generated", map[string]interface{}{
		"task":     task,
		"files":    len(files),
		"duration": time.Since(started).String(),
	})
	return files, nil
}

// RequiredFiles exposes the configured output shape.
func (g *Generator) RequiredFiles() []string {
	return g.config.RequiredFiles
}

// NewBackend builds the TextBackend selected by configuration.
func NewBackend(cfg Settings) (TextBackend, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIBackend(cfg)
	case "anthropic":
		return NewAnthropicBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
