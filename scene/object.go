package scene

import (
	"math"

	"github.com/tdewolff/canvas"
)

// Identity 是场景对象不可变的标识，等于其来源文字行或素材的 ID。
type Identity string

// Kind distinguishes text groups from uploaded assets.
type Kind int

const (
	KindText Kind = iota
	KindAsset
)

func (k Kind) String() string {
	if k == KindAsset {
		return "asset"
	}
	return "text"
}

// Origin 决定 Left/Top 指向对象的哪个点。
type Origin int

const (
	// OriginTopLeft: Left/Top 是包围盒左上角（素材）。
	OriginTopLeft Origin = iota
	// OriginCenter: Left/Top 是包围盒中心（文字分组）。
	OriginCenter
)

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// Rect 是轴对齐包围盒。
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Center returns the geometric center.
func (r Rect) Center() Point { return Point{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2} }

// W returns the width.
func (r Rect) W() float64 { return r.X1 - r.X0 }

// H returns the height.
func (r Rect) H() float64 { return r.Y1 - r.Y0 }

// Union returns the smallest rect containing r and q.
func (r Rect) Union(q Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, q.X0),
		Y0: math.Min(r.Y0, q.Y0),
		X1: math.Max(r.X1, q.X1),
		Y1: math.Max(r.Y1, q.Y1),
	}
}

// Node 是对象内的一条路径。Path 位于对象局部坐标系，(0,0) 为包围盒左上角，y 轴向下。
type Node struct {
	Path        *canvas.Path
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if n.Path != nil {
		c.Path = n.Path.Copy()
	}
	return &c
}

// Object 是场景中的一个可操作对象（文字分组或素材）。
type Object struct {
	id Identity

	Kind   Kind
	Origin Origin
	Left   float64
	Top    float64
	// Width/Height 是未缩放的局部尺寸。
	Width  float64
	Height float64
	ScaleX float64
	ScaleY float64
	Nodes  []*Node

	LockScaling  bool
	LockRotation bool
}

// NewObject creates an object with unit scale.
func NewObject(id Identity, kind Kind, width, height float64, nodes ...*Node) *Object {
	return &Object{
		id:     id,
		Kind:   kind,
		Width:  width,
		Height: height,
		ScaleX: 1,
		ScaleY: 1,
		Nodes:  nodes,
	}
}

// ID returns the identity token.
func (o *Object) ID() Identity { return o.id }

// Size returns the scaled size.
func (o *Object) Size() (w, h float64) {
	return o.Width * o.ScaleX, o.Height * o.ScaleY
}

func (o *Object) topLeft() Point {
	if o.Origin == OriginCenter {
		w, h := o.Size()
		return Point{X: o.Left - w/2, Y: o.Top - h/2}
	}
	return Point{X: o.Left, Y: o.Top}
}

// Bounds returns the bounding box in canvas coordinates.
func (o *Object) Bounds() Rect {
	tl := o.topLeft()
	w, h := o.Size()
	return Rect{X0: tl.X, Y0: tl.Y, X1: tl.X + w, Y1: tl.Y + h}
}

// Center returns the geometric center in canvas coordinates.
func (o *Object) Center() Point { return o.Bounds().Center() }

// MoveBy translates the object.
func (o *Object) MoveBy(dx, dy float64) {
	o.Left += dx
	o.Top += dy
}

// SetCenter 平移对象使其几何中心落在 p。
func (o *Object) SetCenter(p Point) {
	c := o.Center()
	o.MoveBy(p.X-c.X, p.Y-c.Y)
}

// Matrix 返回局部坐标到画布坐标的变换。
func (o *Object) Matrix() canvas.Matrix {
	tl := o.topLeft()
	return canvas.Matrix{
		{o.ScaleX, 0, tl.X},
		{0, o.ScaleY, tl.Y},
	}
}

// Clone returns a deep copy that keeps the identity.
func (o *Object) Clone() *Object {
	c := *o
	c.Nodes = make([]*Node, len(o.Nodes))
	for i, n := range o.Nodes {
		c.Nodes[i] = n.Clone()
	}
	return &c
}
