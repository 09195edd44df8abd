// Package vectorize 把文字行描述转换为矢量路径分组（Text Vectorization Pipeline）。
package vectorize

import (
	"context"
	"fmt"

	"github.com/tdewolff/canvas"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/shirtgen/glyph"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// GlyphSource resolves a font family to loaded outlines.
type GlyphSource interface {
	Load(ctx context.Context, family string) (*glyph.Source, error)
}

var _ GlyphSource = (*glyph.Cache)(nil)

// Rendering 是一行文字的两份路径渲染：带描边（bordered）与无描边（borderless）。
// 二者共享同一几何；borderless 叠在 bordered 之上，避免多个字符描边相交时覆盖内部笔画。
type Rendering struct {
	Width      float64
	Height     float64
	Bordered   *scene.Node
	Borderless *scene.Node
}

// Pipeline 依赖字形缓存，对同一输入总是产生相同几何。
type Pipeline struct {
	glyphs GlyphSource
}

// New creates a pipeline.
func New(glyphs GlyphSource) *Pipeline {
	return &Pipeline{glyphs: glyphs}
}

// Outline 返回 line 在局部坐标中的轮廓（包围盒左上角为原点，y 轴向下）及其尺寸。
// 字体不可用时返回包装了 glyph.ErrUnavailable 的错误。
func (p *Pipeline) Outline(ctx context.Context, line model.TextLine) (*canvas.Path, float64, float64, error) {
	src, err := p.glyphs.Load(ctx, line.FontFamily)
	if err != nil {
		return nil, 0, 0, err
	}
	text := ApplyLetterSpacing(norm.NFC.String(line.Text), line.LetterSpacing)

	// 字号以 pt 传入；canvas 的字形路径以 mm 输出，换算回画布单位。
	face := src.Face.Face(line.FontSizePt, canvas.Black, canvas.FontRegular, canvas.FontNormal)
	path, _, err := face.ToPath(text)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("文字 %q 转换路径失败: %w", line.Text, err)
	}
	if path == nil || path.Empty() {
		return &canvas.Path{}, 0, 0, nil
	}
	k := model.MmToPt
	path = path.Transform(canvas.Matrix{{k, 0, 0}, {0, -k, 0}})
	b := path.Bounds()
	path = path.Translate(-b.X0, -b.Y0)
	return path, b.X1 - b.X0, b.Y1 - b.Y0, nil
}

// Render 产生 bordered 与 borderless 两个路径节点，顺序固定为先 bordered 后 borderless。
func (p *Pipeline) Render(ctx context.Context, line model.TextLine) (*Rendering, error) {
	path, w, h, err := p.Outline(ctx, line)
	if err != nil {
		return nil, err
	}
	return &Rendering{
		Width:  w,
		Height: h,
		Bordered: &scene.Node{
			Path:        path,
			Fill:        line.FillColor,
			Stroke:      line.StrokeColor,
			StrokeWidth: line.StrokeWidth,
		},
		Borderless: &scene.Node{
			Path:        path.Copy(),
			Fill:        line.FillColor,
			Stroke:      "none",
			StrokeWidth: 0,
		},
	}, nil
}

// Group 渲染 line 并把两份路径组合为一个以 center 为中心的场景对象，标识为行 ID。
func (p *Pipeline) Group(ctx context.Context, line model.TextLine, center scene.Point) (*scene.Object, error) {
	r, err := p.Render(ctx, line)
	if err != nil {
		return nil, err
	}
	obj := scene.NewObject(scene.Identity(line.ID), scene.KindText, r.Width, r.Height, r.Bordered, r.Borderless)
	obj.Origin = scene.OriginCenter
	obj.Left, obj.Top = center.X, center.Y
	obj.LockScaling = true
	obj.LockRotation = true
	return obj, nil
}
