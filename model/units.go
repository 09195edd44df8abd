package model

import "math"

// 画布坐标以像素为单位；字号以 pt 表示。tdewolff/canvas 内部使用毫米，换算常量在此统一维护。

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// FontSizeOptions 是字号可选档位，更新时吸附到最接近的一档。
var FontSizeOptions = []float64{40, 50, 60, 70, 80, 90, 100, 110, 120, 200}

// StrokeWidthOptions 是描边宽度可选值，不在其中的值会被忽略。
var StrokeWidthOptions = []float64{0, 6, 8, 10, 12}

// Defaults for new text lines.
const (
	DefaultText       = "TEAMNAME"
	DefaultLineText   = "ATHLETICS"
	DefaultFontSizePt = 80
	DefaultFillColor  = "#000000"
	DefaultBorder     = "#000000"
	// NewLineOffset 是新增行相对上一行的纵向间距。
	NewLineOffset = 60
	// NewLineX 是新增行的默认横坐标。
	NewLineX = 238
)

// SnapFontSize 返回与 size 最接近的字号档位；距离相同时取较小的一档。
func SnapFontSize(size float64) float64 {
	best := FontSizeOptions[0]
	for _, opt := range FontSizeOptions[1:] {
		if math.Abs(opt-size) < math.Abs(best-size) {
			best = opt
		}
	}
	return best
}

// ValidStrokeWidth reports whether w is one of StrokeWidthOptions.
func ValidStrokeWidth(w float64) bool {
	for _, opt := range StrokeWidthOptions {
		if opt == w {
			return true
		}
	}
	return false
}

// RoundCoord 将坐标四舍五入到整数。
func RoundCoord(v float64) float64 { return math.Round(v) }
