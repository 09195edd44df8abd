package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// 该文件定义组合（文字行 + 矢量素材）的数据模型，供引擎、序列化与持久化共用。

// LetterSpacing 是字距档位。实现上以插入空格近似字距，而不是真正调整 tracking。
type LetterSpacing string

const (
	SpacingNone  LetterSpacing = "None"
	SpacingSmall LetterSpacing = "Small"
	SpacingLarge LetterSpacing = "Large"
)

// ParseLetterSpacing 接受 None/Small/Large 以及旧模板中的 S/L 写法（大小写不敏感）。
func ParseLetterSpacing(s string) (LetterSpacing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SpacingNone, nil
	case "small", "s":
		return SpacingSmall, nil
	case "large", "l":
		return SpacingLarge, nil
	default:
		return SpacingNone, fmt.Errorf("未知的字距档位 %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LetterSpacing) UnmarshalText(b []byte) error {
	v, err := ParseLetterSpacing(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TextLine 描述一行文字。AnchorX/AnchorY 是渲染后分组的几何中心（画布坐标）。
type TextLine struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	FontFamily    string        `json:"fontFamily"`
	FontSizePt    float64       `json:"fontSizePt"`
	FillColor     string        `json:"fillColor"`
	StrokeColor   string        `json:"strokeColor"`
	StrokeWidth   float64       `json:"strokeWidth"`
	AnchorX       float64       `json:"anchorX"`
	AnchorY       float64       `json:"anchorY"`
	LetterSpacing LetterSpacing `json:"letterSpacing"`
}

// Colors 是从素材中提取出的去重颜色（规范化为 #rrggbb，保持首次出现的顺序）。
type Colors struct {
	Fill   []string `json:"fill"`
	Stroke []string `json:"stroke"`
}

// Clone returns a deep copy.
func (c Colors) Clone() Colors {
	return Colors{
		Fill:   append([]string{}, c.Fill...),
		Stroke: append([]string{}, c.Stroke...),
	}
}

// Position 是素材对象左上角在画布中的位置。
type Position struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Scale 是素材对象的缩放。
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AssetRecord 是上传的矢量素材。场景对象由同步器独占持有，这里只通过 ID（即场景标识）引用。
// Markup 与 Colors 必须始终一致：改色操作会原地重写 Markup。
type AssetRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Markup   string   `json:"markup"`
	Colors   Colors   `json:"colors"`
	Position Position `json:"position"`
	Scale    Scale    `json:"scale"`
}

// Clone returns a deep copy.
func (a AssetRecord) Clone() AssetRecord {
	a.Colors = a.Colors.Clone()
	return a
}

// Snapshot 是持久化的组合快照。SceneLayout 对持久化层与序列化器之外的代码不透明。
type Snapshot struct {
	SceneLayout json.RawMessage `json:"sceneLayout"`
	TextLines   []TextLine      `json:"textLines"`
	SVGData     []AssetRecord   `json:"svgData"`
}

// TemplateRecord 是模板表中的一行。Content 对传输层不透明。
type TemplateRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Content   json.RawMessage `json:"content"`
	Tags      []string        `json:"tags"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Document 是由 DSL 构建出的组合描述，交给引擎装载。
type Document struct {
	Name   string
	Tags   []string
	Width  float64
	Lines  []TextLine
	Assets []AssetSpec
}

// AssetSpec 描述 DSL 中声明的素材；Src 由调用方解析读取。
type AssetSpec struct {
	Name     string
	Src      string
	Position *Position
	Scale    *Scale
}

// CloneLines returns a copy of lines.
func CloneLines(lines []TextLine) []TextLine {
	return append([]TextLine(nil), lines...)
}
