// Package scene 维护画布上的实时对象：标识索引、层级顺序与当前选中对象。
//
// Scene 本身不加锁，由唯一写入者（engine 同步器）负责串行访问。
package scene

import (
	"errors"
	"fmt"
)

// ErrDuplicate 表示同一标识已存在于场景中（每个模型条目只能对应一个实时对象）。
var ErrDuplicate = errors.New("scene: 标识重复")

// DefaultBackground is the canvas background color.
const DefaultBackground = "#ffffff"

// Scene 是实时场景图。objects 的顺序即绘制顺序（后者在上）；index 提供 O(1) 标识查找。
type Scene struct {
	width      float64
	height     float64
	Background string

	objects []*Object
	index   map[Identity]*Object
	active  Identity
}

// New creates an empty scene.
func New(width, height float64) *Scene {
	return &Scene{
		width:      width,
		height:     height,
		Background: DefaultBackground,
		index:      map[Identity]*Object{},
	}
}

// Size returns the canvas size.
func (s *Scene) Size() (w, h float64) { return s.width, s.height }

// SetSize resizes the drawing surface; objects keep their coordinates.
func (s *Scene) SetSize(w, h float64) {
	s.width, s.height = w, h
}

// Center returns the canvas center.
func (s *Scene) Center() Point { return Point{X: s.width / 2, Y: s.height / 2} }

// Add appends o on top of the stack.
func (s *Scene) Add(o *Object) error {
	if o == nil {
		return fmt.Errorf("scene: 对象为空")
	}
	if _, ok := s.index[o.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, o.ID())
	}
	s.objects = append(s.objects, o)
	s.index[o.ID()] = o
	return nil
}

// Remove removes the object with the given identity.
func (s *Scene) Remove(id Identity) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	s.objects = removeObject(s.objects, id)
	if s.active == id {
		s.active = ""
	}
	return true
}

// Clear 移除全部对象并取消选中。
func (s *Scene) Clear() {
	s.objects = nil
	s.index = map[Identity]*Object{}
	s.active = ""
}

// Lookup 按标识查找对象，O(1)。
func (s *Scene) Lookup(id Identity) (*Object, bool) {
	o, ok := s.index[id]
	return o, ok
}

// Objects returns the objects in stacking order (bottom first).
func (s *Scene) Objects() []*Object {
	return append([]*Object(nil), s.objects...)
}

// Len returns the number of objects.
func (s *Scene) Len() int { return len(s.objects) }

// IndexOf returns the stacking position of id, or -1.
func (s *Scene) IndexOf(id Identity) int {
	for i, o := range s.objects {
		if o.ID() == id {
			return i
		}
	}
	return -1
}

// SetActive selects the object with the given identity.
func (s *Scene) SetActive(id Identity) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	s.active = id
	return true
}

// ClearActive drops the selection.
func (s *Scene) ClearActive() { s.active = "" }

// Active returns the selected object, or nil.
func (s *Scene) Active() *Object {
	if s.active == "" {
		return nil
	}
	return s.index[s.active]
}

// BringToFront moves id to the top of the stack.
func (s *Scene) BringToFront(id Identity) bool {
	o, ok := s.index[id]
	if !ok {
		return false
	}
	s.objects = append(removeObject(s.objects, id), o)
	return true
}

// SendToBack moves id to the bottom of the stack.
func (s *Scene) SendToBack(id Identity) bool {
	o, ok := s.index[id]
	if !ok {
		return false
	}
	rest := removeObject(s.objects, id)
	s.objects = append([]*Object{o}, rest...)
	return true
}

// Bounds 返回所有对象包围盒的并集；场景为空时 ok 为 false。
func (s *Scene) Bounds() (r Rect, ok bool) {
	for i, o := range s.objects {
		if i == 0 {
			r = o.Bounds()
			continue
		}
		r = r.Union(o.Bounds())
	}
	return r, len(s.objects) > 0
}

func removeObject(objects []*Object, id Identity) []*Object {
	out := objects[:0:0]
	for _, o := range objects {
		if o.ID() != id {
			out = append(out, o)
		}
	}
	return out
}
