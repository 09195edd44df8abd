package engine

import "github.com/ByLCY/shirtgen/model"

// EventKind identifies what changed.
type EventKind int

const (
	// EventModelUpdated: 文字行或素材列表发生了变化。
	EventModelUpdated EventKind = iota
	// EventOpacity: 画布透明度变化（重建开始时 0，结束时 1）。
	EventOpacity
	// EventSceneRebuilt: 一次重建或模板加载已提交到场景。
	EventSceneRebuilt
)

func (k EventKind) String() string {
	switch k {
	case EventOpacity:
		return "opacity"
	case EventSceneRebuilt:
		return "scene-rebuilt"
	default:
		return "model-updated"
	}
}

// Event 是发给订阅者的通知。Lines/Assets 为副本，仅在 EventModelUpdated 时填充。
type Event struct {
	Kind    EventKind
	Opacity float64
	Lines   []model.TextLine
	Assets  []model.AssetRecord
}

// Subscribe 注册回调并返回取消函数。回调在引擎锁之外调用，可以安全地回调引擎。
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) deliver(events []Event) {
	if len(events) == 0 {
		return
	}
	e.subMu.Lock()
	subs := make([]func(Event), 0, len(e.subs))
	for i := 0; i < e.nextSub; i++ {
		if fn, ok := e.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	e.subMu.Unlock()
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// publish queues ev; the lock must be held.
func (e *Engine) publish(ev Event) {
	e.pending = append(e.pending, ev)
}

func (e *Engine) publishModel() {
	e.publish(Event{
		Kind:   EventModelUpdated,
		Lines:  model.CloneLines(e.lines),
		Assets: cloneAssets(e.assets),
	})
}

func (e *Engine) setOpacity(v float64) {
	if e.opacity == v {
		return
	}
	e.opacity = v
	e.publish(Event{Kind: EventOpacity, Opacity: v})
}
