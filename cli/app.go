package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/ByLCY/factzy/config"
	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/flashcard"
	"github.com/ByLCY/factzy/httputil"
	"github.com/ByLCY/factzy/layout"
	"github.com/ByLCY/factzy/ocr"
	"github.com/ByLCY/factzy/pipeline"
	"github.com/ByLCY/factzy/qa"
	canvasrenderer "github.com/ByLCY/factzy/renderer/canvas"
	"github.com/ByLCY/factzy/source/wiki"
	"github.com/ByLCY/factzy/store"
)

// needs selects the optional services a command uses.
type needs struct {
	ocr     bool // image pipeline
	chat    bool // Q/A extraction for image cards
	history bool // store must open, not just best effort
}

// app aggregates the services of one command run. Close releases them in reverse order.
type app struct {
	cfg      config.Config
	log      *log.Logger
	cards    *flashcard.Renderer
	store    *store.Store
	pipeline *pipeline.Pipeline

	closers []io.Closer
}

// buildApp wires dependencies from a loaded Viper instance.
func buildApp(ctx context.Context, v *viper.Viper, logger *log.Logger, n needs) (*app, error) {
	if err := config.CheckValidity(v); err != nil {
		return nil, err
	}
	cfg := config.FromViper(v)
	a := &app{cfg: cfg, log: logger}

	cwd, _ := os.Getwd()
	backend := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: cwd})
	a.cards = flashcard.New(backend, flashcard.Options{
		Font:     layout.FontResource{Name: "Card", Src: cfg.FontSrc},
		FontSize: cfg.FontSize,
	})

	dbPath := config.ResolveDBPath(v)
	st, err := store.Open(ctx, dbPath)
	switch {
	case err == nil:
		a.store = st
		a.closers = append(a.closers, st)
	case n.history:
		return nil, err
	default:
		logger.Warn("card history disabled", "db", dbPath, "err", err)
	}

	var cache *httputil.Cache
	if cfg.Wiki.CacheTTL > 0 {
		if cache, err = httputil.NewCache("", cfg.Wiki.CacheTTL); err != nil {
			logger.Warn("response cache disabled", "err", err)
			cache = nil
		}
	}
	fetcher := wiki.New(wiki.Options{
		BaseURL:   cfg.Wiki.BaseURL,
		UserAgent: cfg.Wiki.UserAgent,
		Timeout:   cfg.Wiki.Timeout,
		Cache:     cache,
	})

	opts := pipeline.Options{
		Renderer:     a.cards,
		Fetcher:      fetcher,
		Logger:       logger,
		OutputDir:    cfg.OutputDir,
		NameTemplate: cfg.NameTemplate,
	}
	if a.store != nil {
		opts.Recorder = a.store
	}

	if n.ocr {
		engine, err := ocr.NewTesseract(ocr.TesseractOptions{Binary: cfg.OCR.Binary, Lang: cfg.OCR.Lang})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, engine)
		opts.OCR = engine
	}

	if n.chat {
		chatOpts := qa.ChatOptions{
			BaseURL:   cfg.Chat.BaseURL,
			Model:     cfg.Chat.Model,
			APIKeyEnv: cfg.Chat.APIKeyEnv,
			Timeout:   cfg.Chat.Timeout,
		}
		if chatOpts.ResolveAPIKey() == "" {
			logger.Debug("no chat API key, using rule-based Q/A", "env", cfg.Chat.APIKeyEnv)
		} else {
			gen, err := qa.NewChatGenerator(chatOpts)
			if err != nil {
				_ = a.Close()
				return nil, err
			}
			a.closers = append(a.closers, gen)
			opts.Generator = gen
		}
	}

	p, err := pipeline.New(opts)
	if err != nil {
		_ = a.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build pipeline")
	}
	a.pipeline = p
	return a, nil
}

// Close releases services in reverse construction order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}
