package pipeline

import (
	"context"
	"strings"

	"github.com/ByLCY/factzy/binding"
	"github.com/ByLCY/factzy/dsl"
	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/flashcard"
	"github.com/ByLCY/factzy/store"
)

// Deck 渲染卡组文件中的每张卡片；卡片文本先用 data 插值。
// 未声明学科的卡组由分类器根据全部卡片文本决定。
func (p *Pipeline) Deck(ctx context.Context, doc *dsl.Document, data any) ([]Card, error) {
	if doc == nil || len(doc.Decks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "卡组为空")
	}
	var cards []Card
	for _, deck := range doc.Decks {
		texts := make([]string, len(deck.Cards))
		for i, c := range deck.Cards {
			texts[i] = binding.Interpolate(c.Text(), data)
			if missing := binding.Missing(c.Text(), data); len(missing) > 0 {
				p.logger.Warn("unresolved placeholders", "deck", deck.Name, "card", i+1, "paths", missing)
			}
		}
		subject := deck.SubjectLabel()
		if subject == "" {
			subject = p.classifier.Classify(strings.Join(texts, "\n"))
		}
		got, err := p.renderAll(ctx, batch{
			kind:    store.KindDeck,
			subject: subject,
			source:  flashcard.SourceTag(deck.Name),
			texts:   texts,
		})
		cards = append(cards, got...)
		if err != nil {
			return cards, err
		}
	}
	return cards, nil
}
