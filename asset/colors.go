// Package asset 处理上传的矢量素材（SVG）：颜色提取、按颜色替换、解析为场景对象。
package asset

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/beevik/etree"
	"github.com/mazznoer/csscolorparser"

	"github.com/ByLCY/shirtgen/model"
)

// paint attributes considered by extraction and recoloring.
const (
	attrFill   = "fill"
	attrStroke = "stroke"
	noneValue  = "none"
)

// NormalizeColor 将任意 CSS 颜色规范化为小写 #rrggbb；无法识别时 ok 为 false。透明度被丢弃。
func NormalizeColor(s string) (string, bool) {
	c, err := csscolorparser.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B)), true
}

// ParseColor 把画笔属性值转换为 color.Color：空串返回 fallback，none 返回全透明。
func ParseColor(s string, fallback color.Color) color.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if s == noneValue {
		return color.RGBA{}
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return fallback
	}
	a := channel(c.A)
	// color.RGBA 为预乘格式。
	return color.RGBA{
		R: uint8(uint16(channel(c.R)) * uint16(a) / 255),
		G: uint8(uint16(channel(c.G)) * uint16(a) / 255),
		B: uint8(uint16(channel(c.B)) * uint16(a) / 255),
		A: a,
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// ExtractColors 收集所有元素的 fill/stroke 属性值：跳过 none 与无法识别的值，规范化并按首次出现顺序去重。
func ExtractColors(markup string) (model.Colors, error) {
	doc, err := readDocument(markup)
	if err != nil {
		return model.Colors{}, err
	}
	colors := model.Colors{Fill: []string{}, Stroke: []string{}}
	walkElements(doc.Root(), func(el *etree.Element) {
		colors.Fill = appendColor(colors.Fill, el.SelectAttrValue(attrFill, ""))
		colors.Stroke = appendColor(colors.Stroke, el.SelectAttrValue(attrStroke, ""))
	})
	return colors, nil
}

func appendColor(list []string, raw string) []string {
	if raw == "" || raw == noneValue {
		return list
	}
	hex, ok := NormalizeColor(raw)
	if !ok {
		return list
	}
	for _, c := range list {
		if c == hex {
			return list
		}
	}
	return append(list, hex)
}

// Recolor 把 fill 或 stroke 属性原始值恰好等于 oldColor 的元素改为 newColor。
// 比较基于原始属性字符串而不是规范化后的颜色；其余元素保持不变。
func Recolor(markup, oldColor, newColor string) (string, error) {
	doc, err := readDocument(markup)
	if err != nil {
		return "", err
	}
	walkElements(doc.Root(), func(el *etree.Element) {
		for _, key := range []string{attrFill, attrStroke} {
			if a := el.SelectAttr(key); a != nil && a.Value == oldColor {
				a.Value = newColor
			}
		}
	})
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("序列化 SVG 失败: %w", err)
	}
	return out, nil
}

func readDocument(markup string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		return nil, fmt.Errorf("解析 SVG 失败: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("解析 SVG 失败: 缺少根元素")
	}
	return doc, nil
}

// walkElements visits el and all its descendants in document order.
func walkElements(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walkElements(child, fn)
	}
}
