package engine

import (
	"context"

	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// RequestRebuild 合并短时间内的多次请求，静默期结束后执行一次重建。
func (e *Engine) RequestRebuild() {
	e.debounced(func() {
		e.mu.Lock()
		ctx := e.ctx
		e.mu.Unlock()
		if ctx == nil {
			return
		}
		if err := e.Rebuild(ctx); err != nil && ctx.Err() == nil {
			e.log.WithError(err).Warn("重建场景失败")
		}
	})
}

// Rebuild 重新矢量化全部文字行并整体替换场景。
//
// 每次重建领取一个代号；矢量化完成后若已有更新的重建开始，则本次结果被丢弃。
// 已存在的对象保持其实时位置，新行放在模型锚点。提交顺序为先文字行后素材，均按模型顺序。
func (e *Engine) Rebuild(ctx context.Context) error {
	e.lock()
	if err := e.ready(); err != nil {
		e.unlock()
		return err
	}
	e.generation++
	gen := e.generation
	lines := model.CloneLines(e.lines)
	live := map[string]scene.Point{}
	for _, l := range lines {
		if o, ok := e.scene.Lookup(scene.Identity(l.ID)); ok {
			live[l.ID] = o.Center()
		}
	}
	e.setOpacity(0)
	e.unlock()

	groups, err := e.vectorize(ctx, lines, live)

	e.lock()
	defer e.unlock()
	if e.state != StateInitialized || gen != e.generation {
		e.log.WithField("generation", gen).Debug("丢弃过期的重建结果")
		return nil
	}
	if err != nil {
		e.setOpacity(1)
		return err
	}
	e.commit(groups)
	e.setOpacity(1)
	e.publish(Event{Kind: EventSceneRebuilt})
	return nil
}

// vectorize renders lines outside the lock. Lines whose font is unavailable are skipped.
func (e *Engine) vectorize(ctx context.Context, lines []model.TextLine, centers map[string]scene.Point) ([]*scene.Object, error) {
	groups := make([]*scene.Object, 0, len(lines))
	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		center, ok := centers[l.ID]
		if !ok {
			center = scene.Point{X: l.AnchorX, Y: l.AnchorY}
		}
		obj, err := e.pipeline.Group(ctx, l, center)
		if err != nil {
			e.log.WithError(err).WithField("line", l.ID).Warn("文字行矢量化失败，已跳过")
			continue
		}
		groups = append(groups, obj)
	}
	return groups, nil
}

// commit replaces the scene content; the lock must be held.
func (e *Engine) commit(groups []*scene.Object) {
	var active scene.Identity
	if o := e.scene.Active(); o != nil {
		active = o.ID()
	}
	var assets []*scene.Object
	for _, a := range e.assets {
		if o, ok := e.scene.Lookup(scene.Identity(a.ID)); ok {
			assets = append(assets, o)
		}
	}

	// 矢量化期间可能发生过拖动或键盘微调，以提交时的实时位置为准。
	for _, g := range groups {
		if old, ok := e.scene.Lookup(g.ID()); ok {
			g.SetCenter(old.Center())
		}
	}

	e.scene.Clear()
	for _, g := range groups {
		e.add(g)
	}
	for _, o := range assets {
		e.add(o)
	}
	if active != "" {
		e.scene.SetActive(active)
	}
}

func (e *Engine) add(o *scene.Object) {
	if err := e.scene.Add(o); err != nil {
		e.log.WithError(err).WithField("object", o.ID()).Error("添加场景对象失败")
	}
}
