package layout

import (
	"strconv"
	"strings"
)

// 画布按每单位一个像素光栅化，因此画布单位即像素。

// Unit 记录配置中长度值的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 裸数字，按像素处理
	UnitPX
	UnitPT // 1pt = 4/3px
)

// 换算常量。canvas 以毫米计量字号，而 1mm 被光栅化为 1px，所以像素转 pt 同样使用 MmToPt。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PtToPx = 96.0 / 72.0
)

// UnitToString 返回单位的简写。
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length 保留数值及其原始单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToPX 转换为画布像素。
func (l Length) ToPX() float64 {
	if l.Unit == UnitPT {
		return l.Value * PtToPx
	}
	return l.Value
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// ParseLength 解析 "16"、"16px" 或 "12pt"；无法解析或为负数时返回零值。
func ParseLength(value string) Length {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}
	}
	unit := UnitNone
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}
