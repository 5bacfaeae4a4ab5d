// Package ocr 从扫描的笔记图片中提取文本。
//
// 提取器需显式创建并在使用结束后 Close，不存在全局单例。
package ocr

import (
	"context"

	"github.com/ByLCY/factzy/errors"
)

// Extractor 从图片文件提取文本。
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
	Close() error
}

// ErrEngineUnavailable 表示找不到 OCR 引擎。
var ErrEngineUnavailable = errors.New(errors.ErrCodeUnsupported, "OCR 引擎不可用")

// ErrClosed 表示提取器已关闭。
var ErrClosed = errors.New(errors.ErrCodeInternal, "OCR 提取器已关闭")

// MinWords 低于该词数时认为识别失败，改用原图重试。
const MinWords = 5
