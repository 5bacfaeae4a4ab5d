package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/flashcard"
	"github.com/ByLCY/factzy/qa"
	"github.com/ByLCY/factzy/store"
)

// IsImage 判断扩展名是否为可识别的笔记图片。
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// Image 识别单张笔记图片，为每个问答对渲染一张卡片。
func (p *Pipeline) Image(ctx context.Context, path string) ([]Card, error) {
	if !IsImage(path) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "不支持的图片类型: %s", path)
	}
	if p.ocr == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "未配置 OCR 引擎")
	}
	p.logger.Info("processing image", "path", path)
	text, err := p.ocr.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "未从 %s 识别到文本", path)
	}
	p.logger.Debug("text extracted", "path", path, "chars", len(text))

	subject := p.classifier.Classify(text)
	pairs, err := p.generator.Generate(ctx, text)
	if err != nil || len(pairs) == 0 {
		if err != nil {
			p.logger.Warn("question generation failed, using rule-based pairs", "err", err)
		}
		pairs, _ = qa.RuleBased{}.Generate(ctx, text)
	}
	texts := make([]string, len(pairs))
	for i, pair := range pairs {
		texts[i] = pair.Text()
	}
	return p.renderAll(ctx, batch{
		kind:    store.KindImage,
		subject: subject,
		source:  flashcard.SourceFromPath(path),
		texts:   texts,
	})
}

// Images 按文件名顺序处理目录中的图片。
func (p *Pipeline) Images(ctx context.Context, dir string) ([]Card, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "读取目录 %s 失败", dir)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && IsImage(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		p.logger.Warn("no images found", "dir", dir)
	}
	return p.ImageFiles(ctx, paths)
}

// ImageFiles 依次处理每张图片；单张失败只记录并跳过，最后合并返回所有错误。
func (p *Pipeline) ImageFiles(ctx context.Context, paths []string) ([]Card, error) {
	var (
		cards []Card
		errs  []error
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		got, err := p.Image(ctx, path)
		cards = append(cards, got...)
		if err != nil {
			p.logger.Error("image failed", "path", path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
		}
	}
	return cards, stderrors.Join(errs...)
}
