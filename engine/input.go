package engine

import (
	"fmt"

	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// Key is a keyboard key name as reported by the UI.
type Key string

// Arrow keys move the active object by one unit.
const (
	ArrowUp    Key = "ArrowUp"
	ArrowDown  Key = "ArrowDown"
	ArrowLeft  Key = "ArrowLeft"
	ArrowRight Key = "ArrowRight"
)

// nudgeStep 是方向键每次移动的距离。
const nudgeStep = 1

// Select makes id the active object; an empty id clears the selection.
func (e *Engine) Select(id string) error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	if id == "" {
		e.scene.ClearActive()
		return nil
	}
	if !e.scene.SetActive(scene.Identity(id)) {
		return fmt.Errorf("对象不存在: %s", id)
	}
	if e.assetIndex(id) >= 0 {
		e.selectedAsset = id
	}
	return nil
}

// Drag 在拖动过程中移动实时对象，不修改模型；松开时由 PointerUp 写回。
func (e *Engine) Drag(id string, dx, dy float64) error {
	e.lock()
	defer e.unlock()
	obj, err := e.live(id)
	if err != nil {
		return err
	}
	obj.MoveBy(dx, dy)
	return nil
}

// PointerUp 在拖动结束时把实时位置写回模型。
func (e *Engine) PointerUp(id string) error {
	return e.ObjectModified(id)
}

// ObjectModified 把实时对象的几何写回模型：文字行写入取整后的中心，素材写入左上角与缩放。
func (e *Engine) ObjectModified(id string) error {
	e.lock()
	defer e.unlock()
	obj, err := e.live(id)
	if err != nil {
		return err
	}
	if e.propagate(obj) {
		e.publishModel()
	}
	return nil
}

// KeyDown 处理方向键微调：活动对象移动 1 个单位并立即写回模型。
// 返回值表示是否应阻止按键的默认行为；其它按键或没有活动对象时返回 false。
func (e *Engine) KeyDown(key Key) bool {
	e.lock()
	defer e.unlock()
	if e.ready() != nil {
		return false
	}
	obj := e.scene.Active()
	if obj == nil {
		return false
	}
	switch key {
	case ArrowUp:
		obj.MoveBy(0, -nudgeStep)
	case ArrowDown:
		obj.MoveBy(0, nudgeStep)
	case ArrowLeft:
		obj.MoveBy(-nudgeStep, 0)
	case ArrowRight:
		obj.MoveBy(nudgeStep, 0)
	default:
		return false
	}
	if e.propagate(obj) {
		e.publishModel()
	}
	return true
}

// SendToBack moves the active object to the bottom of the stack.
func (e *Engine) SendToBack() {
	e.reorderActive(false)
}

// BringToFront moves the active object to the top of the stack.
func (e *Engine) BringToFront() {
	e.reorderActive(true)
}

func (e *Engine) reorderActive(front bool) {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		e.log.WithError(err).Warn("画布未初始化")
		return
	}
	obj := e.scene.Active()
	if obj == nil {
		e.log.Info("没有选中的对象")
		return
	}
	e.reorder(obj.ID(), front)
}

// propagate writes the live geometry of obj into its model entry; the lock must be held.
func (e *Engine) propagate(obj *scene.Object) bool {
	id := string(obj.ID())
	if i := e.lineIndex(id); i >= 0 {
		c := obj.Center()
		e.lines[i].AnchorX = model.RoundCoord(c.X)
		e.lines[i].AnchorY = model.RoundCoord(c.Y)
		return true
	}
	if i := e.assetIndex(id); i >= 0 {
		e.assets[i].Position = model.Position{Left: obj.Left, Top: obj.Top}
		e.assets[i].Scale = model.Scale{X: obj.ScaleX, Y: obj.ScaleY}
		return true
	}
	return false
}

func (e *Engine) live(id string) (*scene.Object, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	obj, ok := e.scene.Lookup(scene.Identity(id))
	if !ok {
		return nil, fmt.Errorf("对象不存在: %s", id)
	}
	return obj, nil
}
