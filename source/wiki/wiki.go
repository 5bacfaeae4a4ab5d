// Package wiki 抓取百科条目的导语段落。
package wiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/httputil"
)

const (
	DefaultBaseURL   = "https://en.wikipedia.org"
	DefaultUserAgent = "factzy/1.0 (flashcard generator)"
	DefaultTimeout   = 15 * time.Second

	// 短于该长度的段落通常是图注或空白占位。
	minParagraphChars = 50
	// 累计词数超过该值后停止收集。
	maxWords = 300
)

// Options 配置抓取器；零值字段使用默认值。
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Cache     *httputil.Cache // 可为 nil
	Client    *http.Client
}

// Fetcher 按主题抓取条目导语。不做重试。
type Fetcher struct {
	base      string
	userAgent string
	http      *http.Client
	cache     *httputil.Cache
}

// New 创建抓取器。
func New(opts Options) *Fetcher {
	f := &Fetcher{
		base:      strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      opts.Client,
	}
	if f.base == "" {
		f.base = DefaultBaseURL
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		f.http = &http.Client{Timeout: timeout}
	}
	if opts.Cache != nil {
		f.cache = opts.Cache.Namespace("wiki:")
	}
	return f
}

// URL 返回主题对应的条目地址，空格替换为下划线。
func (f *Fetcher) URL(topic string) string {
	return f.base + "/wiki/" + url.PathEscape(strings.ReplaceAll(strings.TrimSpace(topic), " ", "_"))
}

// Intro 返回条目中长度超过 50 字符的段落，以空格连接，累计超过 300 词后停止。
// 条目没有合格段落时返回空串且不报错。
func (f *Fetcher) Intro(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "主题不能为空")
	}
	u := f.URL(topic)
	return httputil.Fetch(f.cache, u, func() (string, error) {
		body, err := f.get(ctx, u)
		if err != nil {
			return "", err
		}
		defer body.Close()
		return ExtractIntro(body)
	})
}

func (f *Fetcher) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "构造请求失败")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "请求 %s 失败", u)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, errors.New(errors.ErrCodeNotFound, "条目不存在: %s", u)
	default:
		resp.Body.Close()
		return nil, errors.New(errors.ErrCodeNetwork, "请求 %s 返回状态 %d", u, resp.StatusCode)
	}
}

// ExtractIntro 从 HTML 中按文档顺序收集段落文本。
func ExtractIntro(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("解析 HTML 失败: %w", err)
	}
	var (
		parts []string
		words int
	)
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			text := strings.TrimSpace(nodeText(n))
			if len([]rune(text)) > minParagraphChars {
				parts = append(parts, text)
				words += len(strings.Fields(text))
			}
			return words > maxWords
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return strings.Join(parts, " "), nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
