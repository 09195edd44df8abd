package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"github.com/tdewolff/minify/v2"
	svgmin "github.com/tdewolff/minify/v2/svg"

	"github.com/ByLCY/shirtgen/asset"
	"github.com/ByLCY/shirtgen/renderer"
	"github.com/ByLCY/shirtgen/scene"
)

// Format is an export file format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ForExtension 根据文件扩展名（可带点）选择输出格式。
func ForExtension(ext string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(ext, "."))); f {
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("不支持的输出格式: %q", ext)
	}
}

// Meta 写入 PDF 文档信息。
type Meta struct {
	Title    string
	Subject  string
	Keywords []string
	Author   string
	Creator  string
}

// Options configures the canvas renderer.
type Options struct {
	Format Format
	// Minify 仅对 SVG 生效。
	Minify bool
	// PNGSize 为 PNG 输出的边长（像素），0 表示与画布同尺寸。
	PNGSize int
	Meta    Meta
}

// Renderer draws scenes via github.com/tdewolff/canvas.
type Renderer struct {
	opts Options
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer; an empty format means SVG.
func NewRenderer(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	return &Renderer{opts: opts}
}

// Ext returns the file extension of the configured format.
func (r *Renderer) Ext() string { return string(r.opts.Format) }

// Render renders the scene in the configured format.
func (r *Renderer) Render(s *scene.Scene) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("场景为空")
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %vx%v", w, h)
	}
	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与场景一致：左上角为原点，y 轴向下
	drawScene(ctx, s)

	switch r.opts.Format {
	case FormatSVG:
		return r.renderSVG(c, w, h)
	case FormatPNG:
		return r.renderPNG(c)
	case FormatPDF:
		return r.renderPDF(c, w, h)
	default:
		return nil, fmt.Errorf("不支持的输出格式: %q", r.opts.Format)
	}
}

func (r *Renderer) renderSVG(c *canvas.Canvas, w, h float64) ([]byte, error) {
	var buf bytes.Buffer
	writer := svg.New(&buf, w, h, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 SVG 失败: %w", err)
	}
	if !r.opts.Minify {
		return buf.Bytes(), nil
	}
	m := minify.New()
	m.AddFunc("image/svg+xml", svgmin.Minify)
	out, err := m.Bytes("image/svg+xml", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("压缩 SVG 失败: %w", err)
	}
	return out, nil
}

func (r *Renderer) renderPNG(c *canvas.Canvas) ([]byte, error) {
	// 场景单位按 1 像素栅格化。
	var img image.Image = rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
	if size := r.opts.PNGSize; size > 0 && (img.Bounds().Dx() != size || img.Bounds().Dy() != size) {
		img = imaging.Resize(img, size, size, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("写入 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderPDF(c *canvas.Canvas, w, h float64) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, w, h, nil)
	meta := r.opts.Meta
	writer.SetInfo(meta.Title, meta.Subject, strings.Join(meta.Keywords, ", "), meta.Author, meta.Creator)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// drawScene 先铺背景，再按层级顺序绘制每个对象的路径节点。
func drawScene(ctx *canvas.Context, s *scene.Scene) {
	w, h := s.Size()
	ctx.SetFillColor(asset.ParseColor(s.Background, canvas.White))
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(0, 0, canvas.Rectangle(w, h))

	for _, o := range s.Objects() {
		m := o.Matrix()
		for _, n := range o.Nodes {
			if n.Path == nil || n.Path.Empty() {
				continue
			}
			drawNode(ctx, n, m, (o.ScaleX+o.ScaleY)/2)
		}
	}
}

func drawNode(ctx *canvas.Context, n *scene.Node, m canvas.Matrix, scale float64) {
	ctx.SetFillColor(asset.ParseColor(n.Fill, canvas.Black))
	width := n.StrokeWidth * scale
	if n.Stroke == "" || n.Stroke == "none" || width <= 0 {
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.SetStrokeWidth(0)
	} else {
		ctx.SetStrokeColor(asset.ParseColor(n.Stroke, canvas.Transparent))
		ctx.SetStrokeWidth(width)
	}
	ctx.DrawPath(0, 0, n.Path.Transform(m))
}
