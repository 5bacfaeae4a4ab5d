// Package flashcard 提供闪卡渲染的对外契约：一段文本加一个输出路径，得到一张 800×400 的卡片图片。
package flashcard

import (
	"github.com/disintegration/imaging"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/fonts"
	"github.com/ByLCY/factzy/layout"
	"github.com/ByLCY/factzy/renderer"
	canvasrenderer "github.com/ByLCY/factzy/renderer/canvas"
)

// Options 配置卡片字体。零值使用内置 Go 字体与默认字号。
type Options struct {
	Font     layout.FontResource
	FontSize float64 // 像素
}

// Renderer 串联排版、绘制与编码。不持有跨调用的可变状态，可并发使用。
type Renderer struct {
	backend  renderer.Backend
	font     layout.FontResource
	fontSize float64
}

// New 使用给定后端创建渲染器。
func New(backend renderer.Backend, opts Options) *Renderer {
	font := opts.Font
	if font.Src == "" {
		font = layout.FontResource{Name: "Card", Src: "embed:" + fonts.Default}
	}
	size := opts.FontSize
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	return &Renderer{backend: backend, font: font, fontSize: size}
}

// NewDefault 创建基于 tdewolff/canvas 的渲染器。
func NewDefault(opts Options) *Renderer {
	return New(canvasrenderer.NewRenderer(), opts)
}

// Plan 只做排版，不绘制。
func (r *Renderer) Plan(text string) (*layout.Result, error) {
	res, err := layout.Build(text, layout.BuildOptions{
		Typesetter: r.backend,
		Font:       r.font,
		FontSize:   r.fontSize,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "排版失败")
	}
	return res, nil
}

// Render 将 text 渲染为卡片并写入 outputPath，已存在的文件会被覆盖。
// 图片格式由扩展名决定；父目录需由调用方创建。
// 空文本或超长单词都不是错误，只有编码与写盘失败会返回错误。
func (r *Renderer) Render(text, outputPath string) (*layout.Result, error) {
	if _, err := imaging.FormatFromFilename(outputPath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "不支持的图片格式: %s", outputPath)
	}
	res, err := r.Plan(text)
	if err != nil {
		return nil, err
	}
	img, err := r.backend.Render(res)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "绘制卡片失败")
	}
	if err := imaging.Save(img, outputPath); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "写入卡片 %s 失败", outputPath)
	}
	return res, nil
}
