package asset

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/parse/v2/strconv"

	"github.com/ByLCY/shirtgen/scene"
)

// 只解释属性上的 fill/stroke/stroke-width，与颜色提取、改色的范围保持一致；style 属性不参与。

type paintState struct {
	fill        string
	stroke      string
	strokeWidth float64
}

// Parse 把 SVG 标记解析为一个素材对象：每个可绘制元素成为一个路径节点，
// 节点坐标位于以素材左上角为原点的局部坐标系。
func Parse(id scene.Identity, markup string) (*scene.Object, error) {
	doc, err := readDocument(markup)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root.Tag != "svg" {
		return nil, fmt.Errorf("解析 SVG 失败: 根元素为 <%s>", root.Tag)
	}

	width, height, base := viewport(root)
	p := &parser{}
	p.walkChildren(root, base, inherit(paintState{strokeWidth: 1}, root))
	if p.err != nil {
		return nil, p.err
	}

	if width <= 0 || height <= 0 {
		width, height = normalize(p.nodes)
	}
	return scene.NewObject(id, scene.KindAsset, width, height, p.nodes...), nil
}

type parser struct {
	nodes []*scene.Node
	err   error
}

func (p *parser) walkChildren(el *etree.Element, m canvas.Matrix, st paintState) {
	for _, child := range el.ChildElements() {
		if p.err != nil {
			return
		}
		p.walk(child, m, st)
	}
}

func (p *parser) walk(el *etree.Element, parent canvas.Matrix, inherited paintState) {
	m := parent
	if tr := el.SelectAttrValue("transform", ""); tr != "" {
		m = parent.Mul(parseTransform(tr))
	}
	st := inherit(inherited, el)

	switch el.Tag {
	case "g", "a", "svg":
		p.walkChildren(el, m, st)
		return
	}
	path, err := shape(el)
	if err != nil {
		p.err = err
		return
	}
	if path == nil {
		return
	}
	p.nodes = append(p.nodes, &scene.Node{
		Path:        path.Transform(m),
		Fill:        st.fill,
		Stroke:      st.stroke,
		StrokeWidth: st.strokeWidth * matrixScale(m),
	})
}

func inherit(st paintState, el *etree.Element) paintState {
	if a := el.SelectAttr(attrFill); a != nil {
		st.fill = a.Value
	}
	if a := el.SelectAttr(attrStroke); a != nil {
		st.stroke = a.Value
	}
	if v := el.SelectAttrValue("stroke-width", ""); v != "" {
		if w, ok := number(v); ok {
			st.strokeWidth = w
		}
	}
	return st
}

// shape 返回元素在用户坐标系下的路径；非图形元素返回 nil。
func shape(el *etree.Element) (*canvas.Path, error) {
	attr := func(key string) float64 {
		v, _ := number(el.SelectAttrValue(key, ""))
		return v
	}
	switch el.Tag {
	case "path":
		d := el.SelectAttrValue("d", "")
		if strings.TrimSpace(d) == "" {
			return nil, nil
		}
		path, err := canvas.ParseSVGPath(d)
		if err != nil {
			return nil, fmt.Errorf("解析 SVG 路径失败: %w", err)
		}
		return path, nil
	case "rect":
		w, h := attr("width"), attr("height")
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		var path *canvas.Path
		if r := math.Max(attr("rx"), attr("ry")); r > 0 {
			path = canvas.RoundedRectangle(w, h, math.Min(r, math.Min(w, h)/2))
		} else {
			path = canvas.Rectangle(w, h)
		}
		return placeAt(path, attr("x"), attr("y")), nil
	case "circle":
		r := attr("r")
		if r <= 0 {
			return nil, nil
		}
		return centerAt(canvas.Circle(r), attr("cx"), attr("cy")), nil
	case "ellipse":
		rx, ry := attr("rx"), attr("ry")
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		return centerAt(canvas.Ellipse(rx, ry), attr("cx"), attr("cy")), nil
	case "line":
		path := &canvas.Path{}
		path.MoveTo(attr("x1"), attr("y1"))
		path.LineTo(attr("x2"), attr("y2"))
		return path, nil
	case "polyline", "polygon":
		pts := numbers(el.SelectAttrValue("points", ""))
		if len(pts) < 4 {
			return nil, nil
		}
		path := &canvas.Path{}
		path.MoveTo(pts[0], pts[1])
		for i := 2; i+1 < len(pts); i += 2 {
			path.LineTo(pts[i], pts[i+1])
		}
		if el.Tag == "polygon" {
			path.Close()
		}
		return path, nil
	}
	return nil, nil
}

// placeAt translates path so its bounding box starts at (x, y).
func placeAt(path *canvas.Path, x, y float64) *canvas.Path {
	b := path.Bounds()
	return path.Translate(x-b.X0, y-b.Y0)
}

// centerAt translates path so its bounding box is centered on (cx, cy).
func centerAt(path *canvas.Path, cx, cy float64) *canvas.Path {
	b := path.Bounds()
	return path.Translate(cx-(b.X0+b.X1)/2, cy-(b.Y0+b.Y1)/2)
}

// viewport 根据 width/height/viewBox 计算素材尺寸与用户坐标到局部坐标的变换。尺寸未知时返回 0。
func viewport(root *etree.Element) (float64, float64, canvas.Matrix) {
	width, _ := length(root.SelectAttrValue("width", ""))
	height, _ := length(root.SelectAttrValue("height", ""))
	vb := numbers(root.SelectAttrValue("viewBox", ""))
	if len(vb) == 4 && vb[2] > 0 && vb[3] > 0 {
		if width <= 0 {
			width = vb[2]
		}
		if height <= 0 {
			height = vb[3]
		}
		m := canvas.Matrix{{width / vb[2], 0, 0}, {0, height / vb[3], 0}}.
			Mul(canvas.Matrix{{1, 0, -vb[0]}, {0, 1, -vb[1]}})
		return width, height, m
	}
	return width, height, canvas.Identity
}

// normalize 在缺少尺寸声明时，用图形包围盒确定尺寸，并把节点平移到原点。
func normalize(nodes []*scene.Node) (float64, float64) {
	var r scene.Rect
	first := true
	for _, n := range nodes {
		if n.Path == nil || n.Path.Empty() {
			continue
		}
		b := n.Path.Bounds()
		nb := scene.Rect{X0: b.X0, Y0: b.Y0, X1: b.X1, Y1: b.Y1}
		if first {
			r, first = nb, false
			continue
		}
		r = r.Union(nb)
	}
	if first {
		return 0, 0
	}
	for _, n := range nodes {
		if n.Path != nil {
			n.Path = n.Path.Translate(-r.X0, -r.Y0)
		}
	}
	return r.W(), r.H()
}

var transformPattern = regexp.MustCompile(`([a-zA-Z]+)\s*\(([^)]*)\)`)

// parseTransform 支持 matrix/translate/scale/rotate/skewX/skewY，按书写顺序右乘。
func parseTransform(s string) canvas.Matrix {
	m := canvas.Identity
	for _, match := range transformPattern.FindAllStringSubmatch(s, -1) {
		args := numbers(match[2])
		arg := func(i int, def float64) float64 {
			if i < len(args) {
				return args[i]
			}
			return def
		}
		switch match[1] {
		case "matrix":
			if len(args) == 6 {
				m = m.Mul(canvas.Matrix{{args[0], args[2], args[4]}, {args[1], args[3], args[5]}})
			}
		case "translate":
			m = m.Mul(canvas.Matrix{{1, 0, arg(0, 0)}, {0, 1, arg(1, 0)}})
		case "scale":
			sx := arg(0, 1)
			m = m.Mul(canvas.Matrix{{sx, 0, 0}, {0, arg(1, sx), 0}})
		case "rotate":
			rad := arg(0, 0) * math.Pi / 180
			sin, cos := math.Sincos(rad)
			cx, cy := arg(1, 0), arg(2, 0)
			m = m.Mul(canvas.Matrix{{1, 0, cx}, {0, 1, cy}}).
				Mul(canvas.Matrix{{cos, -sin, 0}, {sin, cos, 0}}).
				Mul(canvas.Matrix{{1, 0, -cx}, {0, 1, -cy}})
		case "skewX":
			m = m.Mul(canvas.Matrix{{1, math.Tan(arg(0, 0) * math.Pi / 180), 0}, {0, 1, 0}})
		case "skewY":
			m = m.Mul(canvas.Matrix{{1, 0, 0}, {math.Tan(arg(0, 0) * math.Pi / 180), 1, 0}})
		}
	}
	return m
}

// matrixScale approximates the uniform scale of m for stroke widths.
func matrixScale(m canvas.Matrix) float64 {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	return math.Sqrt(math.Abs(det))
}

// numbers 解析以空白或逗号分隔的数字列表。
func numbers(s string) []float64 {
	b := []byte(s)
	var out []float64
	for i := 0; i < len(b); {
		switch b[i] {
		case ' ', ',', '\t', '\n', '\r':
			i++
			continue
		}
		f, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			break
		}
		out = append(out, f)
		i += n
	}
	return out
}

func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, n := strconv.ParseFloat([]byte(s))
	return f, n > 0
}

// length 解析 width/height；百分比无法确定绝对尺寸，视为未声明。
func length(s string) (float64, bool) {
	if strings.HasSuffix(strings.TrimSpace(s), "%") {
		return 0, false
	}
	return number(s)
}
