package layout

// 该文件定义闪卡排版结果与资源描述，供排版计算、渲染与调试 JSON 共用。

// Result 保存单张闪卡的排版结果。
// 坐标单位为画布像素，原点位于左上角。
type Result struct {
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Background Color        `json:"background"`
	Foreground Color        `json:"foreground"`
	Font       FontResource `json:"font"`
	FontSize   float64      `json:"fontSize"`

	// Lines 是过滤后的候选行（每行多于两个词，或整段文本的兜底行）。
	Lines []string `json:"lines"`
	// Groups 是按顺序切分的项目符号分组，最多 MaxBullets 组。
	Groups []Group `json:"groups"`
	// Texts 是实际绘制的物理行，溢出部分不会出现在这里。
	Texts []TextBox `json:"texts"`

	// Truncated 表示存在因纵向空间耗尽而未绘制的物理行。
	Truncated bool `json:"truncated"`
	// Dropped 为未绘制的物理行数量。
	Dropped int `json:"dropped"`
}

// Group 表示一个项目符号：若干连续行合并后的文本及其折行结果。
type Group struct {
	Lines   []string `json:"lines"`
	Text    string   `json:"text"`
	Wrapped []string `json:"wrapped"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:<name> 或 built-in:<name>。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	White = Color{R: 255, G: 255, B: 255}
	Black = Color{}
)

// TextBox 表示一条已经排好坐标的物理行。
// Y 为行顶部位置，渲染器负责加上字体上升部得到基线。
type TextBox struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Group   int     `json:"group"`
}

// TextLine 表示测量后的一行文本及其宽高。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// DrawnGroups 返回至少绘制了一行的分组数量。
func (r *Result) DrawnGroups() int {
	if r == nil || len(r.Texts) == 0 {
		return 0
	}
	return r.Texts[len(r.Texts)-1].Group + 1
}

// Blank 表示画布上没有任何文本。
func (r *Result) Blank() bool { return r == nil || len(r.Texts) == 0 }
