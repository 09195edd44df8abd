// Package engine 是场景同步器：持有实时场景与组合模型，负责两者之间的双向同步。
//
// 所有状态由一把互斥锁保护。字体加载与矢量化在锁外进行，结果在锁内提交；
// 事件在释放锁之后按产生顺序投递给订阅者。
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/shirtgen/glyph"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
	"github.com/ByLCY/shirtgen/store"
	"github.com/ByLCY/shirtgen/vectorize"
)

// Errors returned by engine operations.
var (
	ErrDisposed     = errors.New("engine: 已销毁")
	ErrNotAttached  = errors.New("engine: 尚未绑定画布")
	ErrAttached     = errors.New("engine: 已绑定画布")
	ErrUnknownLine  = errors.New("engine: 文字行不存在")
	ErrUnknownAsset = errors.New("engine: 素材不存在")
	ErrFirstLine    = errors.New("engine: 第一行不能删除")
)

// DefaultDebounce 是重建请求的合并间隔。
const DefaultDebounce = 100 * time.Millisecond

// State is the engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateDisposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

// Options configures an Engine.
type Options struct {
	Glyphs   *glyph.Cache
	Store    store.Store
	Notifier Notifier
	Logger   logrus.FieldLogger
	// Debounce 为 0 时使用 DefaultDebounce。
	Debounce time.Duration
	// NewID 生成素材标识，默认使用 UUID。
	NewID func() string
}

// Engine owns the live scene and the composition model.
type Engine struct {
	mu      sync.Mutex
	state   State
	pending []Event

	glyphs   *glyph.Cache
	pipeline *vectorize.Pipeline
	store    store.Store
	notifier Notifier
	log      logrus.FieldLogger
	newID    func() string

	debounced func(func())
	ctx       context.Context
	cancel    context.CancelFunc

	scene         *scene.Scene
	lines         []model.TextLine
	assets        []model.AssetRecord
	selectedAsset string
	generation    uint64
	opacity       float64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates an engine in the uninitialized state.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Glyphs == nil {
		opts.Glyphs = glyph.New(glyph.Options{Logger: opts.Logger})
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Logger: opts.Logger}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{
		glyphs:    opts.Glyphs,
		pipeline:  vectorize.New(opts.Glyphs),
		store:     opts.Store,
		notifier:  opts.Notifier,
		log:       opts.Logger.WithField("component", "engine"),
		newID:     opts.NewID,
		debounced: debounce.New(opts.Debounce),
		opacity:   1,
		subs:      map[int]func(Event){},
	}
}

// Attach 绑定一块边长为 width 的正方形画布并完成首次重建。
// 模型为空时创建默认的第一行，位于画布中心。
func (e *Engine) Attach(ctx context.Context, width float64) error {
	e.lock()
	switch e.state {
	case StateDisposed:
		e.unlock()
		return ErrDisposed
	case StateInitialized:
		e.unlock()
		return ErrAttached
	}
	if width <= 0 {
		e.unlock()
		return fmt.Errorf("画布尺寸无效: %v", width)
	}
	e.scene = scene.New(width, width)
	e.ctx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if len(e.lines) == 0 {
		e.lines = []model.TextLine{e.defaultLine(width)}
		e.publishModel()
	}
	e.state = StateInitialized
	e.unlock()

	return e.Rebuild(ctx)
}

func (e *Engine) defaultLine(width float64) model.TextLine {
	return model.TextLine{
		ID:            "1",
		Text:          model.DefaultText,
		FontFamily:    e.defaultFont(),
		FontSizePt:    model.DefaultFontSizePt,
		FillColor:     model.DefaultFillColor,
		StrokeColor:   model.DefaultBorder,
		StrokeWidth:   0,
		AnchorX:       width / 2,
		AnchorY:       width / 2,
		LetterSpacing: model.SpacingNone,
	}
}

func (e *Engine) defaultFont() string {
	if names := e.glyphs.Catalog().Names(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Resize 调整正方形画布的边长，对象保持原有坐标。
func (e *Engine) Resize(width float64) error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	if width <= 0 {
		return fmt.Errorf("画布尺寸无效: %v", width)
	}
	e.scene.SetSize(width, width)
	return nil
}

// Dispose 释放场景并取消未完成的重建；之后任何操作都返回 ErrDisposed。可重复调用。
func (e *Engine) Dispose() {
	e.lock()
	if e.state == StateDisposed {
		e.unlock()
		return
	}
	e.state = StateDisposed
	e.generation++
	if e.cancel != nil {
		e.cancel()
	}
	e.scene = nil
	e.unlock()

	e.subMu.Lock()
	e.subs = map[int]func(Event){}
	e.subMu.Unlock()
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// FontsLoading reports whether catalog fonts are still being preloaded.
func (e *Engine) FontsLoading() bool { return e.glyphs.Loading() }

// Opacity returns the current canvas opacity (0 while a rebuild is in flight).
func (e *Engine) Opacity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opacity
}

// Lines returns a copy of the text lines.
func (e *Engine) Lines() []model.TextLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.CloneLines(e.lines)
}

// Assets returns a copy of the asset records.
func (e *Engine) Assets() []model.AssetRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAssets(e.assets)
}

// SelectedAsset returns the id of the asset selected in the asset panel.
func (e *Engine) SelectedAsset() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedAsset
}

// Object returns a copy of the live object with the given identity.
func (e *Engine) Object(id string) (*scene.Object, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return nil, false
	}
	o, ok := e.scene.Lookup(scene.Identity(id))
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Stacking returns the live identities bottom first.
func (e *Engine) Stacking() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return nil
	}
	var ids []string
	for _, o := range e.scene.Objects() {
		ids = append(ids, string(o.ID()))
	}
	return ids
}

// Active returns the identity of the active object, or "".
func (e *Engine) Active() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return ""
	}
	if o := e.scene.Active(); o != nil {
		return string(o.ID())
	}
	return ""
}

// ready must be called with the lock held.
func (e *Engine) ready() error {
	switch e.state {
	case StateInitialized:
		return nil
	case StateDisposed:
		return ErrDisposed
	default:
		return ErrNotAttached
	}
}

func (e *Engine) lock() { e.mu.Lock() }

// unlock releases the lock and delivers the events queued while it was held.
func (e *Engine) unlock() {
	events := e.pending
	e.pending = nil
	e.mu.Unlock()
	e.deliver(events)
}

func (e *Engine) lineIndex(id string) int {
	for i, l := range e.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) assetIndex(id string) int {
	for i, a := range e.assets {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func cloneAssets(assets []model.AssetRecord) []model.AssetRecord {
	out := make([]model.AssetRecord, len(assets))
	for i, a := range assets {
		out[i] = a.Clone()
	}
	return out
}
