// Package pipeline 串联抓取、识别、分类、问答生成与卡片渲染。
// 所有渲染按顺序执行。
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/factzy/classify"
	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/flashcard"
	"github.com/ByLCY/factzy/layout"
	"github.com/ByLCY/factzy/ocr"
	"github.com/ByLCY/factzy/qa"
	"github.com/ByLCY/factzy/store"
)

// CardRenderer 由 *flashcard.Renderer 实现。
type CardRenderer interface {
	Render(text, outputPath string) (*layout.Result, error)
}

// IntroFetcher 由 *wiki.Fetcher 实现。
type IntroFetcher interface {
	Intro(ctx context.Context, topic string) (string, error)
}

// Recorder 由 *store.Store 实现。
type Recorder interface {
	Add(ctx context.Context, rec store.Record) (store.Record, error)
}

// Options 装配流水线。Renderer 必填；其余协作者缺省时对应流程不可用或使用默认实现。
type Options struct {
	Renderer     CardRenderer
	Fetcher      IntroFetcher
	OCR          ocr.Extractor
	Generator    qa.Generator
	Classifier   classify.Classifier
	Recorder     Recorder
	Logger       *log.Logger
	OutputDir    string
	NameTemplate string
}

// Pipeline 持有各协作者，但不拥有它们的生命周期，由调用方负责 Close。
type Pipeline struct {
	renderer   CardRenderer
	fetcher    IntroFetcher
	ocr        ocr.Extractor
	generator  qa.Generator
	classifier classify.Classifier
	recorder   Recorder
	logger     *log.Logger
	outputDir  string
	template   string
}

// Card 描述一张已写盘的卡片。
type Card struct {
	Index     int    `json:"index"`
	Path      string `json:"path"`
	Subject   string `json:"subject"`
	Source    string `json:"source"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

// New 创建流水线。
func New(opts Options) (*Pipeline, error) {
	if opts.Renderer == nil {
		return nil, errors.New(errors.ErrCodeInternal, "缺少卡片渲染器")
	}
	p := &Pipeline{
		renderer:   opts.Renderer,
		fetcher:    opts.Fetcher,
		ocr:        opts.OCR,
		generator:  opts.Generator,
		classifier: opts.Classifier,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		outputDir:  opts.OutputDir,
		template:   opts.NameTemplate,
	}
	if p.generator == nil {
		p.generator = qa.RuleBased{}
	}
	if p.classifier == nil {
		p.classifier = classify.NewKeywordClassifier()
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	if p.outputDir == "" {
		p.outputDir = "."
	}
	if p.template == "" {
		p.template = flashcard.DefaultNameTemplate
	}
	return p, nil
}

// OutputDir 返回卡片输出目录。
func (p *Pipeline) OutputDir() string { return p.outputDir }

// batch 描述一组共享学科与来源的卡片文本。
type batch struct {
	kind    store.Kind
	subject string
	source  string
	texts   []string
}

// renderAll 依次命名、渲染并记录每张卡片，遇到第一个错误即返回已完成的卡片。
func (p *Pipeline) renderAll(ctx context.Context, b batch) ([]Card, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "创建输出目录 %s 失败", p.outputDir)
	}
	cards := make([]Card, 0, len(b.texts))
	for i, text := range b.texts {
		if err := ctx.Err(); err != nil {
			return cards, err
		}
		name, err := flashcard.FileName(p.template, b.subject, i+1, b.source)
		if err != nil {
			return cards, err
		}
		path := filepath.Join(p.outputDir, name)
		res, err := p.renderer.Render(text, path)
		if err != nil {
			return cards, err
		}
		card := Card{Index: i + 1, Path: path, Subject: b.subject, Source: b.source, Text: text, Truncated: res.Truncated}
		if res.Truncated {
			p.logger.Warn("card truncated", "path", path, "dropped", res.Dropped)
		}
		p.logger.Debug("card rendered", "path", path, "bullets", len(res.Groups))
		p.record(ctx, b.kind, card)
		cards = append(cards, card)
	}
	return cards, nil
}

// record 写入历史；失败只记日志，不影响已生成的卡片。
func (p *Pipeline) record(ctx context.Context, kind store.Kind, c Card) {
	if p.recorder == nil {
		return
	}
	_, err := p.recorder.Add(ctx, store.Record{
		Subject:   c.Subject,
		Source:    c.Source,
		Kind:      kind,
		Index:     c.Index,
		Path:      c.Path,
		Text:      c.Text,
		Truncated: c.Truncated,
	})
	if err != nil {
		p.logger.Warn("record card failed", "path", c.Path, "err", err)
	}
}

// Single 将一段文本渲染到指定路径，并记入历史。
func (p *Pipeline) Single(ctx context.Context, text, outputPath string) (Card, error) {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Card{}, errors.Wrap(errors.ErrCodeIO, err, "创建输出目录 %s 失败", dir)
		}
	}
	res, err := p.renderer.Render(text, outputPath)
	if err != nil {
		return Card{}, err
	}
	card := Card{
		Index:     1,
		Path:      outputPath,
		Subject:   p.classifier.Classify(text),
		Source:    flashcard.SourceFromPath(outputPath),
		Text:      text,
		Truncated: res.Truncated,
	}
	p.record(ctx, store.KindText, card)
	return card, nil
}
