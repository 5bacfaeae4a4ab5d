package layout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// stubTypesetter 是一个最小实现，仅用于测试：每个字符 8px 宽，行高固定 20px。
type stubTypesetter struct {
	err error
}

func (s *stubTypesetter) MeasureLine(content string, font FontResource, fontSize float64) (TextLine, error) {
	if s.err != nil {
		return TextLine{}, s.err
	}
	return TextLine{Content: content, Width: float64(utf8.RuneCountInString(content) * 8), Height: 20}, nil
}

func buildText(t *testing.T, text string) *Result {
	t.Helper()
	res, err := Build(text, BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return res
}

func TestBuildEmptyTextIsBlank(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n  \t\n"} {
		res := buildText(t, text)
		if !res.Blank() {
			t.Fatalf("%q: 期望空白卡片，得到 %d 行", text, len(res.Texts))
		}
		if len(res.Groups) != 0 || res.Truncated {
			t.Fatalf("%q: 不应有分组或截断: %+v", text, res)
		}
		if res.Width != CardWidth || res.Height != CardHeight {
			t.Fatalf("画布尺寸错误: %gx%g", res.Width, res.Height)
		}
	}
}

func TestBuildThreeSentencesThreeBullets(t *testing.T) {
	text := "A very important fact about gravity.\nIt pulls things down.\nIt was studied by Newton."
	res := buildText(t, text)

	if got := len(res.Groups); got != 3 {
		t.Fatalf("期望 3 组，得到 %d", got)
	}
	if res.Truncated {
		t.Fatalf("不应截断")
	}
	for i, g := range res.Groups {
		if len(g.Lines) != 1 {
			t.Fatalf("第 %d 组应只有 1 行，得到 %d", i, len(g.Lines))
		}
		if !strings.HasPrefix(g.Wrapped[0], Bullet+" ") {
			t.Fatalf("第 %d 组缺少项目符号: %q", i, g.Wrapped[0])
		}
	}
	for _, tb := range res.Texts {
		want := float64(int((CardWidth - tb.Width) / 2))
		if tb.X != want {
			t.Fatalf("行 %q 未居中: x=%g want=%g", tb.Content, tb.X, want)
		}
	}
}

func TestBuildSingleLineSentencesStayOneBullet(t *testing.T) {
	// 断句不属于排版：没有换行的多句文本只构成一行、一个分组。
	text := "A very important fact about gravity. It pulls things down. It was studied by Newton."
	res := buildText(t, text)
	if got := len(res.Groups); got != 1 {
		t.Fatalf("期望 1 组，得到 %d", got)
	}
	if !reflect.DeepEqual(res.Lines, []string{text}) {
		t.Fatalf("行切分错误: %q", res.Lines)
	}
	if !strings.HasPrefix(res.Texts[0].Content, Bullet+" ") || res.Truncated {
		t.Fatalf("渲染错误: %+v", res.Texts)
	}
}

func TestBuildDropsOneWordAnswer(t *testing.T) {
	// "A: Paris" 只有两个词，与 OCR 噪声同样被过滤，卡片只保留问题。
	res := buildText(t, "Q: What is the capital of France?\nA: Paris")
	if !reflect.DeepEqual(res.Lines, []string{"Q: What is the capital of France?"}) {
		t.Fatalf("过滤结果错误: %q", res.Lines)
	}
}

func TestBuildSingleLineFallback(t *testing.T) {
	// 一行只有两个词，会被过滤；兜底使用整段文本。
	res := buildText(t, "  hi there  ")
	if !reflect.DeepEqual(res.Lines, []string{"hi there"}) {
		t.Fatalf("兜底行错误: %q", res.Lines)
	}
	if len(res.Texts) != 1 || res.Texts[0].Content != "• hi there" {
		t.Fatalf("兜底渲染错误: %+v", res.Texts)
	}
}

func TestBuildDropsShortLines(t *testing.T) {
	text := "Chapter 3\nthe first real line\nx\nanother real line here"
	res := buildText(t, text)
	want := []string{"the first real line", "another real line here"}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Fatalf("过滤结果错误: got=%q want=%q", res.Lines, want)
	}
}

func TestGroupLinesCeilingPartition(t *testing.T) {
	tests := []struct {
		lines int
		sizes []int
	}{
		{lines: 1, sizes: []int{1}},
		{lines: 5, sizes: []int{1, 1, 1, 1, 1}},
		{lines: 6, sizes: []int{2, 2, 2}},
		{lines: 7, sizes: []int{2, 2, 2, 1}},
		{lines: 12, sizes: []int{3, 3, 3, 3}},
		{lines: 13, sizes: []int{3, 3, 3, 3, 1}},
		{lines: 100, sizes: []int{20, 20, 20, 20, 20}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_lines", tt.lines), func(t *testing.T) {
			lines := make([]string, tt.lines)
			for i := range lines {
				lines[i] = fmt.Sprintf("line number %d", i)
			}
			groups := GroupLines(lines)
			if len(groups) > MaxBullets {
				t.Fatalf("分组数超过上限: %d", len(groups))
			}
			var sizes []int
			var flat []string
			for _, g := range groups {
				if len(g.Lines) == 0 {
					t.Fatalf("出现空分组")
				}
				sizes = append(sizes, len(g.Lines))
				flat = append(flat, g.Lines...)
			}
			if !reflect.DeepEqual(sizes, tt.sizes) {
				t.Fatalf("分组大小错误: got=%v want=%v", sizes, tt.sizes)
			}
			if !reflect.DeepEqual(flat, lines) {
				t.Fatalf("分组未保持原顺序")
			}
		})
	}
}

func TestBuildTwelveLinesFourGroups(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "fact number %d here\n", i+1)
	}
	res := buildText(t, b.String())
	if len(res.Groups) != 4 {
		t.Fatalf("期望 4 组，得到 %d", len(res.Groups))
	}
	for i, g := range res.Groups {
		if len(g.Lines) != 3 {
			t.Fatalf("第 %d 组应为 3 行，得到 %d", i, len(g.Lines))
		}
	}
}

// 第 4 个项目符号的折行把纵向偏移推过 400-40 后，剩余行与第 5 组都不绘制。
func TestBuildOverflowTruncatesWithinFourthBullet(t *testing.T) {
	bullet := func(letter byte, tokens int) string {
		word := strings.Repeat(string(letter), 29)
		parts := make([]string, tokens)
		for i := range parts {
			parts[i] = word
		}
		return strings.Join(parts, " ")
	}
	// 29 字符的词：首行 "• X"，此后每行两个词。
	text := strings.Join([]string{
		bullet('a', 5), // 3 行
		bullet('b', 5), // 3 行
		bullet('c', 5), // 3 行
		bullet('d', 9), // 5 行
		bullet('e', 3), // 2 行
	}, "\n")
	res := buildText(t, text)

	wrapped := []int{}
	for _, g := range res.Groups {
		wrapped = append(wrapped, len(g.Wrapped))
	}
	if !reflect.DeepEqual(wrapped, []int{3, 3, 3, 5, 2}) {
		t.Fatalf("折行数量不符合预期: %v", wrapped)
	}

	// 偏移从 40 开始，每行前进 20+8；第 12 行之后 40+12*28=376 > 360。
	if got := len(res.Texts); got != 12 {
		t.Fatalf("期望绘制 12 行，得到 %d", got)
	}
	if !res.Truncated || res.Dropped != 4 {
		t.Fatalf("截断标记错误: truncated=%v dropped=%d", res.Truncated, res.Dropped)
	}
	last := res.Texts[len(res.Texts)-1]
	if last.Group != 3 {
		t.Fatalf("最后绘制的行应属于第 4 组，得到第 %d 组", last.Group+1)
	}
	for _, tb := range res.Texts {
		if tb.Group == 4 {
			t.Fatalf("第 5 组不应被绘制: %q", tb.Content)
		}
	}
	if res.DrawnGroups() != 4 {
		t.Fatalf("DrawnGroups 错误: %d", res.DrawnGroups())
	}
}

func TestBuildExactFitIsNotTruncation(t *testing.T) {
	// 4 组各 3 行，共 12 行：最后一行恰好越过底部边距，但没有剩余内容。
	word := strings.Repeat("q", 29)
	line := strings.Join([]string{word, word, word, word, word}, " ")
	res := buildText(t, strings.Join([]string{line, line, line, line}, "\n"))
	if got := len(res.Texts); got != 12 {
		t.Fatalf("期望绘制 12 行，得到 %d", got)
	}
	if res.Truncated || res.Dropped != 0 {
		t.Fatalf("内容全部绘制时不应标记截断: truncated=%v dropped=%d", res.Truncated, res.Dropped)
	}
}

func TestWrapKeepsLongTokenWhole(t *testing.T) {
	long := strings.Repeat("x", 70)
	got := Wrap("short "+long+" tail", WrapWidth)
	want := []string{"short", long, "tail"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("超长词处理错误: got=%q want=%q", got, want)
	}

	got = Wrap(Bullet+" "+long, WrapWidth)
	if !reflect.DeepEqual(got, []string{Bullet, long}) {
		t.Fatalf("项目符号后的超长词应独占一行: %q", got)
	}
}

func TestWrapWidthLimit(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 12)
	lines := Wrap(text, WrapWidth)
	if len(lines) < 2 {
		t.Fatalf("期望多行，得到 %d", len(lines))
	}
	for i, ln := range lines {
		if n := utf8.RuneCountInString(ln); n > WrapWidth {
			t.Fatalf("第 %d 行超出宽度: %d", i, n)
		}
	}
	if strings.Join(lines, " ") != strings.Join(strings.Fields(text), " ") {
		t.Fatalf("折行丢失或改变了词序")
	}
}

func TestWrapCountsRunesNotBytes(t *testing.T) {
	// 59 个 rune 的多字节词加上项目符号恰好超过 60。
	word := strings.Repeat("é", 59)
	got := Wrap(Bullet+" "+word, WrapWidth)
	if len(got) != 2 {
		t.Fatalf("应按 rune 计宽: %q", got)
	}
	if got := Wrap(Bullet+" "+strings.Repeat("é", 58), WrapWidth); len(got) != 1 {
		t.Fatalf("60 个 rune 应放在一行: %q", got)
	}
}

func TestWrapEmpty(t *testing.T) {
	if got := Wrap("   ", WrapWidth); got != nil {
		t.Fatalf("空白文本应无折行结果: %q", got)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	text := "The mitochondria is the powerhouse of the cell.\nCells divide by mitosis and meiosis.\n" +
		strings.Repeat("very long sentence that keeps going ", 10)
	a := buildText(t, text)
	b := buildText(t, text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("相同输入得到不同排版结果")
	}
}

func TestBuildRequiresTypesetter(t *testing.T) {
	if _, err := Build("some text here", BuildOptions{}); err == nil {
		t.Fatalf("缺少 Typesetter 时应返回错误")
	}
}

func TestBuildPropagatesMeasureError(t *testing.T) {
	boom := errors.New("font missing")
	_, err := Build("some text here", BuildOptions{Typesetter: &stubTypesetter{err: boom}})
	if !errors.Is(err, boom) {
		t.Fatalf("应透传测量错误，得到 %v", err)
	}
}

func TestBuildDefaultsFontSize(t *testing.T) {
	res := buildText(t, "some text here")
	if res.FontSize != DefaultFontSize {
		t.Fatalf("默认字号错误: %g", res.FontSize)
	}
}
