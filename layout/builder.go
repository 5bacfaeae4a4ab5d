package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// 闪卡版式常量。数值是产品约定，修改会直接改变分组与折行结果。
const (
	CardWidth  = 800.0
	CardHeight = 400.0
	CardMargin = 40.0

	// WrapWidth 为每条物理行的字符上限（按 rune 计）。
	WrapWidth = 60
	// MaxBullets 为单张卡片的项目符号上限。
	MaxBullets = 5
	// Bullet 为每组文本前缀的项目符号。
	Bullet = "•"

	DefaultFontSize = 16.0

	startOffset = 40.0
	lineSpacing = 8.0
	minTokens   = 3 // 行内词数必须多于 2
)

// Build 将任意文本排成一张闪卡：分行、分组、折行、纵向放置与溢出截断。
// 空文本得到空白卡片，不视为错误。
func Build(text string, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	fontSize := opts.FontSize
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	res := &Result{
		Width:      CardWidth,
		Height:     CardHeight,
		Background: White,
		Foreground: Black,
		Font:       opts.Font,
		FontSize:   fontSize,
	}
	res.Lines = SegmentLines(text)
	res.Groups = GroupLines(res.Lines)

	total := 0
	for i := range res.Groups {
		g := &res.Groups[i]
		g.Text = strings.Join(g.Lines, " ")
		g.Wrapped = Wrap(Bullet+" "+g.Text, WrapWidth)
		total += len(g.Wrapped)
	}

	if err := place(res, opts.Typesetter); err != nil {
		return nil, err
	}
	res.Dropped = total - len(res.Texts)
	res.Truncated = res.Dropped > 0
	return res, nil
}

// place 自上而下放置物理行；绘制某行后若纵向偏移越过底部边距，立即停止。
func place(res *Result, ts Typesetter) error {
	offset := startOffset
	limit := res.Height - CardMargin
	for gi, g := range res.Groups {
		for _, content := range g.Wrapped {
			line, err := ts.MeasureLine(content, res.Font, res.FontSize)
			if err != nil {
				return fmt.Errorf("测量文本行失败: %w", err)
			}
			res.Texts = append(res.Texts, TextBox{
				Content: content,
				X:       math.Floor((res.Width - line.Width) / 2), // 可能为负，允许左右裁切
				Y:       offset,
				Width:   line.Width,
				Height:  line.Height,
				Group:   gi,
			})
			offset += line.Height + lineSpacing
			if offset > limit {
				return nil
			}
		}
	}
	return nil
}

// SegmentLines 按换行切分文本，只保留词数多于 2 的行（OCR 噪声通常很短）。
// 若全部被过滤，则使用整段去空白后的文本作为唯一一行；整段为空时返回 nil。
func SegmentLines(text string) []string {
	var lines []string
	for _, piece := range strings.Split(text, "\n") {
		piece = strings.TrimSpace(piece)
		if len(strings.Fields(piece)) >= minTokens {
			lines = append(lines, piece)
		}
	}
	if len(lines) > 0 {
		return lines
	}
	if fallback := strings.TrimSpace(text); fallback != "" {
		return []string{fallback}
	}
	return nil
}

// GroupLines 将行按原顺序切成 min(MaxBullets, len) 份，每份 ceil(len/n) 行。
// 末尾不足的分组保留，空分组省略。
func GroupLines(lines []string) []Group {
	n := min(MaxBullets, len(lines))
	if n == 0 {
		return nil
	}
	size := (len(lines) + n - 1) / n
	groups := make([]Group, 0, n)
	for start := 0; start < len(lines); start += size {
		end := min(start+size, len(lines))
		groups = append(groups, Group{Lines: lines[start:end:end]})
	}
	return groups
}

// Wrap 贪心折行：仅在空白处断开，每行不超过 limit 个字符。
// 单个超长词不拆分，独占一行。
func Wrap(text string, limit int) []string {
	var (
		lines   []string
		builder strings.Builder
		width   int
	)
	for _, token := range strings.Fields(text) {
		tokenWidth := utf8.RuneCountInString(token)
		if width > 0 && width+1+tokenWidth > limit {
			lines = append(lines, builder.String())
			builder.Reset()
			width = 0
		}
		if width > 0 {
			builder.WriteByte(' ')
			width++
		}
		builder.WriteString(token)
		width += tokenWidth
	}
	if width > 0 {
		lines = append(lines, builder.String())
	}
	return lines
}
