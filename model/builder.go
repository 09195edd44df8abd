package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/shirtgen/binding"
	"github.com/ByLCY/shirtgen/dsl"
)

// DefaultCanvasWidth 是 canvas 段未声明尺寸时使用的边长。
const DefaultCanvasWidth = 500

// BuildOptions 配置 DSL 构建阶段。
type BuildOptions struct {
	// Width 覆盖 canvas 段声明的尺寸；为 0 时使用文件中的尺寸。
	Width float64
	// Fonts 是可用的字体族；为空时不校验。第一项作为默认字体。
	Fonts  []string
	Logger logrus.FieldLogger
}

// Build 把 .logo AST 转换为可交给引擎装载的组合文档。data 用于替换文字中的 ${path} 占位符。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	canvas := doc.Canvas()
	if canvas == nil {
		return nil, fmt.Errorf("文档中缺少 canvas 段落")
	}

	out := &Document{Name: doc.Name, Width: opts.Width}
	if meta := doc.Meta(); meta != nil {
		if v, ok := meta.Lookup("name"); ok && v.Text() != "" {
			out.Name = v.Text()
		}
		if v, ok := meta.Lookup("tags"); ok {
			out.Tags = v.Strings()
		}
	}
	if out.Width <= 0 {
		out.Width = DefaultCanvasWidth
		if canvas.Size != nil {
			w, err := parseNumber(*canvas.Size)
			if err != nil || w <= 0 {
				return nil, fmt.Errorf("%s: canvas 尺寸无效 %q", canvas.Pos, *canvas.Size)
			}
			out.Width = w
		}
	}

	b := &builder{opts: opts, doc: out, data: data}
	for _, cmd := range canvas.Commands {
		var err error
		switch cmd.Name {
		case "line":
			err = b.line(cmd)
		case "asset":
			err = b.asset(cmd)
		default:
			err = fmt.Errorf("未知命令 %q", cmd.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmd.Pos, err)
		}
	}
	if len(out.Lines) == 0 {
		return nil, fmt.Errorf("canvas 段落至少需要一行文字")
	}
	return out, nil
}

type builder struct {
	opts BuildOptions
	doc  *Document
	data any
}

// args walks command arguments as keyword/value pairs.
type args struct {
	items []*dsl.Lexeme
	pos   int
}

func (a *args) done() bool { return a.pos >= len(a.items) }

func (a *args) next(what string) (*dsl.Lexeme, error) {
	if a.done() {
		return nil, fmt.Errorf("缺少%s", what)
	}
	lx := a.items[a.pos]
	a.pos++
	return lx, nil
}

func (a *args) number(what string) (float64, error) {
	lx, err := a.next(what)
	if err != nil {
		return 0, err
	}
	if lx.Type != "Number" {
		return 0, fmt.Errorf("%s 应为数字，实际为 %q", what, lx.Raw)
	}
	return parseNumber(lx.Value)
}

// text reads a string or bare identifier.
func (a *args) text(what string) (string, error) {
	lx, err := a.next(what)
	if err != nil {
		return "", err
	}
	if lx.Type != "String" && lx.Type != "Ident" {
		return "", fmt.Errorf("%s 应为字符串，实际为 %q", what, lx.Raw)
	}
	return lx.Value, nil
}

func (b *builder) line(cmd *dsl.Command) error {
	a := &args{items: cmd.Args}
	raw, err := a.next("文字内容")
	if err != nil {
		return err
	}
	if raw.Type != "String" {
		return fmt.Errorf("line 的第一个参数应为字符串，实际为 %q", raw.Raw)
	}
	text, missing := binding.Bind(raw.Value, b.data)
	if len(missing) > 0 && b.opts.Logger != nil {
		b.opts.Logger.WithField("missing", strings.Join(missing, ",")).Warn("占位符未能解析，保留原文")
	}

	line := TextLine{
		ID:            strconv.Itoa(len(b.doc.Lines) + 1),
		Text:          text,
		FontFamily:    b.defaultFont(),
		FontSizePt:    DefaultFontSizePt,
		FillColor:     DefaultFillColor,
		StrokeColor:   DefaultBorder,
		LetterSpacing: SpacingNone,
	}
	if n := len(b.doc.Lines); n == 0 {
		line.AnchorX, line.AnchorY = b.doc.Width/2, b.doc.Width/2
	} else {
		line.AnchorX, line.AnchorY = NewLineX, b.doc.Lines[n-1].AnchorY+NewLineOffset
	}

	for !a.done() {
		key, _ := a.next("")
		switch key.Value {
		case "font":
			family, err := a.text("字体")
			if err != nil {
				return err
			}
			if !b.knownFont(family) {
				return fmt.Errorf("字体 %q 不在字体目录中", family)
			}
			line.FontFamily = family
		case "size":
			size, err := a.number("字号")
			if err != nil {
				return err
			}
			line.FontSizePt = SnapFontSize(size)
		case "fill", "border":
			lx, err := a.next("颜色")
			if err != nil {
				return err
			}
			if lx.Type != "Color" && lx.Type != "String" && lx.Type != "Ident" {
				return fmt.Errorf("颜色值无效 %q", lx.Raw)
			}
			if key.Value == "fill" {
				line.FillColor = lx.Value
			} else {
				line.StrokeColor = lx.Value
			}
		case "width":
			w, err := a.number("描边宽度")
			if err != nil {
				return err
			}
			if !ValidStrokeWidth(w) {
				return fmt.Errorf("描边宽度 %g 不在可选值 %v 中", w, StrokeWidthOptions)
			}
			line.StrokeWidth = w
		case "spacing":
			v, err := a.text("字距")
			if err != nil {
				return err
			}
			if line.LetterSpacing, err = ParseLetterSpacing(v); err != nil {
				return err
			}
		case "at":
			if line.AnchorX, err = a.number("横坐标"); err != nil {
				return err
			}
			if line.AnchorY, err = a.number("纵坐标"); err != nil {
				return err
			}
		default:
			return fmt.Errorf("line 不支持参数 %q", key.Raw)
		}
	}
	b.doc.Lines = append(b.doc.Lines, line)
	return nil
}

func (b *builder) asset(cmd *dsl.Command) error {
	a := &args{items: cmd.Args}
	name, err := a.text("素材名称")
	if err != nil {
		return err
	}
	spec := AssetSpec{Name: name}
	for !a.done() {
		key, _ := a.next("")
		switch key.Value {
		case "src":
			if spec.Src, err = a.text("素材路径"); err != nil {
				return err
			}
		case "at":
			var p Position
			if p.Left, err = a.number("横坐标"); err != nil {
				return err
			}
			if p.Top, err = a.number("纵坐标"); err != nil {
				return err
			}
			spec.Position = &p
		case "scale":
			sx, err := a.number("缩放")
			if err != nil {
				return err
			}
			s := Scale{X: sx, Y: sx}
			// 可选的第二个数字为纵向缩放。
			if !a.done() && a.items[a.pos].Type == "Number" {
				if s.Y, err = a.number("纵向缩放"); err != nil {
					return err
				}
			}
			if s.X <= 0 || s.Y <= 0 {
				return fmt.Errorf("缩放必须为正数")
			}
			spec.Scale = &s
		default:
			return fmt.Errorf("asset 不支持参数 %q", key.Raw)
		}
	}
	if spec.Src == "" {
		return fmt.Errorf("素材 %q 缺少 src", name)
	}
	b.doc.Assets = append(b.doc.Assets, spec)
	return nil
}

func (b *builder) defaultFont() string {
	if len(b.opts.Fonts) > 0 {
		return b.opts.Fonts[0]
	}
	return ""
}

func (b *builder) knownFont(name string) bool {
	if len(b.opts.Fonts) == 0 {
		return true
	}
	for _, f := range b.opts.Fonts {
		if f == name {
			return true
		}
	}
	return false
}

// parseNumber accepts an optional pt/px suffix.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "pt"), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("数字格式错误 %q: %w", s, err)
	}
	return v, nil
}
