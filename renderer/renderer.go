package renderer

import (
	"image"

	"github.com/ByLCY/factzy/layout"
)

// Renderer 将排版结果绘制为位图，编码与落盘由调用方负责。
type Renderer interface {
	Render(result *layout.Result) (image.Image, error)
}

// Backend 同时提供测量与绘制，闪卡渲染需要两者使用同一套字体。
type Backend interface {
	layout.Typesetter
	Renderer
}
