package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ByLCY/factzy/errors"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4.1-mini"
	DefaultAPIKeyEnv = "OPENAI_API_KEY"

	promptTemplate = "Extract 3 important question-answer flashcards from the following notes:\n%s\nFormat: Q: ... A: ..."
)

// ChatOptions 配置 OpenAI 兼容的 /chat/completions 客户端。
type ChatOptions struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	APIKey    string // 优先于环境变量
	Timeout   time.Duration
}

// ChatGenerator 调用聊天补全接口生成问答对；解析不到问答对时退回 RuleBased。
type ChatGenerator struct {
	url    string
	model  string
	apiKey string
	do     func(*http.Request) (*http.Response, error)
	closed atomic.Bool
}

var _ Generator = (*ChatGenerator)(nil)

// ResolveAPIKey 按选项解析 API Key，先取显式值再取环境变量。
func (o ChatOptions) ResolveAPIKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	env := o.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	return os.Getenv(env)
}

// NewChatGenerator 创建客户端，缺少 API Key 时返回 INVALID_INPUT。
func NewChatGenerator(opts ChatOptions) (*ChatGenerator, error) {
	key := opts.ResolveAPIKey()
	if key == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "缺少 API Key")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	return &ChatGenerator{
		url:    base + "/chat/completions",
		model:  model,
		apiKey: key,
		do:     hc.Do,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Prompt 返回发送给模型的提示词。
func Prompt(text string) string { return fmt.Sprintf(promptTemplate, text) }

func (c *ChatGenerator) Generate(ctx context.Context, text string) ([]Pair, error) {
	if c.closed.Load() {
		return nil, errors.New(errors.ErrCodeInternal, "问答生成器已关闭")
	}
	content, err := c.complete(ctx, Prompt(text))
	if err != nil {
		return nil, err
	}
	if pairs := ParsePairs(content); len(pairs) > 0 {
		return pairs, nil
	}
	return rulePairs(text), nil
}

func (c *ChatGenerator) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "编码请求失败")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "构造请求失败")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "请求聊天接口失败")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "读取响应失败")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeNetwork, "聊天接口返回状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "解析响应失败")
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// Close 之后 Generate 返回错误。
func (c *ChatGenerator) Close() error {
	c.closed.Store(true)
	return nil
}
