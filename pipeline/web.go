package pipeline

import (
	"context"
	"strings"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/flashcard"
	"github.com/ByLCY/factzy/store"
	"github.com/ByLCY/factzy/textproc"
)

// WebOptions 控制百科主题的切分方式。
type WebOptions struct {
	// PerSentence 为每个句子生成一张卡片，否则切分为 3 到 5 块。
	PerSentence bool
}

// Web 抓取主题导语，清理引用标记后分类、切分并渲染。
func (p *Pipeline) Web(ctx context.Context, topic string, opts WebOptions) ([]Card, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "主题不能为空")
	}
	if p.fetcher == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "未配置百科抓取器")
	}
	p.logger.Info("fetching topic", "topic", topic)
	text, err := p.fetcher.Intro(ctx, topic)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "no content found for topic: %s", topic)
	}

	cleaned := strings.TrimSpace(textproc.CleanReferences(text))
	subject := p.classifier.Classify(cleaned)
	sentences := textproc.SplitSentences(cleaned)

	var chunks []string
	if opts.PerSentence {
		chunks = sentences
	} else {
		chunks = textproc.Chunk(sentences)
	}
	if len(chunks) == 0 {
		chunks = []string{cleaned}
	}
	p.logger.Debug("topic split", "subject", subject, "sentences", len(sentences), "cards", len(chunks))

	return p.renderAll(ctx, batch{
		kind:    store.KindWeb,
		subject: subject,
		source:  flashcard.SourceTag(topic),
		texts:   chunks,
	})
}
