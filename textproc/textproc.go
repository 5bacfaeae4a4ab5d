// Package textproc 清理抓取到的百科正文，并切分为适合单张卡片的文本块。
package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

// 形如 [12]、[1][2]、[citation needed] 的引用标记。
var referencePattern = regexp.MustCompile(`\[(?:\d+|citation needed|note \d+)\]`)

// CleanReferences 删除引用标记。
func CleanReferences(s string) string {
	return referencePattern.ReplaceAllString(s, "")
}

// SplitSentences 在 . ! ? 之后紧跟空白处断句，去掉首尾空白与空句。
func SplitSentences(s string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(s)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if unicode.IsSpace(runes[i+1]) {
				sentences = appendTrimmed(sentences, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	return appendTrimmed(sentences, string(runes[start:]))
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

const (
	MinChunks = 3
	MaxChunks = 5
)

// Chunk 将句子按顺序分为 max(MinChunks, min(MaxChunks, len)) 块，每块 ceil(len/n) 句，
// 句子之间以单个空格连接，整块作为卡片上的一行，短句不会被行过滤丢弃。空块省略。
func Chunk(sentences []string) []string {
	if len(sentences) == 0 {
		return nil
	}
	n := max(MinChunks, min(MaxChunks, len(sentences)))
	size := (len(sentences) + n - 1) / n
	chunks := make([]string, 0, n)
	for start := 0; start < len(sentences); start += size {
		end := min(start+size, len(sentences))
		chunks = append(chunks, strings.Join(sentences[start:end], " "))
	}
	return chunks
}

// WordCount 返回以空白分隔的词数。
func WordCount(s string) int { return len(strings.Fields(s)) }
