// Package qa 从笔记文本生成问答对，每个问答对渲染为一张卡片。
package qa

import (
	"context"
	"strings"
)

// Pair 是一个问答对。
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Text 返回卡片正文 "Q: ...\nA: ..."。
func (p Pair) Text() string {
	return "Q: " + p.Question + "\nA: " + p.Answer
}

// Generator 从文本生成问答对。
type Generator interface {
	Generate(ctx context.Context, text string) ([]Pair, error)
}

// ParsePairs 读取以 "Q:" 开头且含 "A:" 的行，在第一个 "A:" 处切分。
func ParsePairs(output string) []Pair {
	var pairs []Pair
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Q:") {
			continue
		}
		q, a, ok := strings.Cut(line, "A:")
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{
			Question: strings.TrimSpace(strings.TrimPrefix(q, "Q:")),
			Answer:   strings.TrimSpace(a),
		})
	}
	return pairs
}

// FallbackQuestion 是规则生成器使用的固定问题。
const FallbackQuestion = "What is this note about?"

// RuleBased 为每个非空行生成一个固定问题的问答对。
type RuleBased struct{}

var _ Generator = RuleBased{}

func (RuleBased) Generate(_ context.Context, text string) ([]Pair, error) {
	return rulePairs(text), nil
}

func rulePairs(text string) []Pair {
	var pairs []Pair
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pairs = append(pairs, Pair{Question: FallbackQuestion, Answer: line})
		}
	}
	return pairs
}
