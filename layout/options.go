package layout

// BuildOptions 配置排版阶段所需的依赖，例如测量后端与字体。
type BuildOptions struct {
	Typesetter Typesetter
	Font       FontResource
	FontSize   float64 // 像素
}

// Typesetter 负责按给定字体测量一行文本的像素宽高。
type Typesetter interface {
	MeasureLine(content string, font FontResource, fontSize float64) (TextLine, error)
}
