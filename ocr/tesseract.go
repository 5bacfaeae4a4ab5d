package ocr

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/textproc"
)

// RunFunc 执行外部命令并返回标准输出。
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// TesseractOptions 配置 tesseract 命令行引擎。
type TesseractOptions struct {
	Binary  string // 默认 "tesseract"
	Lang    string // 默认 "eng"
	TempDir string
	Run     RunFunc // 测试注入；为空时使用 os/exec
}

// Tesseract 调用 tesseract 命令行识别文本。
// 先识别预处理后的图片，词数不足 MinWords 时再识别原图。
type Tesseract struct {
	binary  string
	lang    string
	tempDir string
	run     RunFunc
	closed  atomic.Bool
}

var _ Extractor = (*Tesseract)(nil)

// NewTesseract 创建引擎；未注入 Run 时会检查可执行文件是否存在。
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	t := &Tesseract{
		binary:  opts.Binary,
		lang:    opts.Lang,
		tempDir: opts.TempDir,
		run:     opts.Run,
	}
	if t.binary == "" {
		t.binary = "tesseract"
	}
	if t.lang == "" {
		t.lang = "eng"
	}
	if t.run == nil {
		path, err := exec.LookPath(t.binary)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnsupported, ErrEngineUnavailable, "找不到 %s", t.binary)
		}
		t.binary = path
		t.run = execRun
	}
	return t, nil
}

func (t *Tesseract) ExtractText(ctx context.Context, path string) (string, error) {
	if t.closed.Load() {
		return "", ErrClosed
	}
	pre, err := PreprocessFile(path, t.tempDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(pre)

	text, err := t.recognize(ctx, pre)
	if err != nil {
		return "", err
	}
	if textproc.WordCount(text) >= MinWords {
		return text, nil
	}
	retry, err := t.recognize(ctx, path)
	if err != nil {
		return "", err
	}
	if textproc.WordCount(retry) > textproc.WordCount(text) {
		return retry, nil
	}
	return text, nil
}

func (t *Tesseract) recognize(ctx context.Context, path string) (string, error) {
	out, err := t.run(ctx, t.binary, path, "stdout", "-l", t.lang)
	if err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			return "", ErrEngineUnavailable
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrap(errors.ErrCodeInternal, err, "识别 %s 失败", path)
	}
	return strings.TrimSpace(string(out)), nil
}

// Close 之后 ExtractText 返回 ErrClosed。
func (t *Tesseract) Close() error {
	t.closed.Store(true)
	return nil
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
