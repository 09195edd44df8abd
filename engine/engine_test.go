package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/shirtgen/fonts"
	"github.com/ByLCY/shirtgen/glyph"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/store"
)

// recorder collects events and notifications.
type recorder struct {
	mu            sync.Mutex
	events        []Event
	notifications []Notification
}

func (r *recorder) on(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.notifications = nil
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}
	}
	return r.notifications[len(r.notifications)-1]
}

// newEngine 返回已绑定 500×500 画布的引擎。防抖间隔设得很长，测试中显式调用 Rebuild。
func newEngine(t *testing.T, opts Options) (*Engine, *recorder) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	rec := &recorder{}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	if opts.Glyphs == nil {
		opts.Glyphs = glyph.New(glyph.Options{Logger: logger})
	}
	if opts.Notifier == nil {
		opts.Notifier = rec
	}
	if opts.Debounce == 0 {
		opts.Debounce = time.Hour
	}
	e := New(opts)
	e.Subscribe(rec.on)
	require.NoError(t, e.Attach(context.Background(), 500))
	t.Cleanup(e.Dispose)
	rec.reset()
	return e, rec
}

func TestAttachCreatesDefaultLineAtCenter(t *testing.T) {
	e, _ := newEngine(t, Options{})
	assert.Equal(t, StateInitialized, e.State())

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "TEAMNAME", lines[0].Text)
	assert.Equal(t, "Go Bold", lines[0].FontFamily)
	assert.Equal(t, 80.0, lines[0].FontSizePt)
	assert.Equal(t, 250.0, lines[0].AnchorX)
	assert.Equal(t, 250.0, lines[0].AnchorY)

	obj, ok := e.Object("1")
	require.True(t, ok)
	assert.InDelta(t, 250, obj.Center().X, 1e-9)
	assert.InDelta(t, 250, obj.Center().Y, 1e-9)
	assert.Equal(t, 1.0, e.Opacity())
}

func TestLifecycle(t *testing.T) {
	e, _ := newEngine(t, Options{})
	assert.ErrorIs(t, e.Attach(context.Background(), 500), ErrAttached)

	e.Dispose()
	e.Dispose()
	assert.Equal(t, StateDisposed, e.State())
	assert.ErrorIs(t, e.Attach(context.Background(), 500), ErrDisposed)
	assert.ErrorIs(t, e.Rebuild(context.Background()), ErrDisposed)
	_, err := e.AddLine()
	assert.ErrorIs(t, err, ErrDisposed)
	assert.False(t, e.KeyDown(ArrowLeft))

	fresh := New(Options{})
	assert.ErrorIs(t, fresh.Rebuild(context.Background()), ErrNotAttached)
	assert.Error(t, fresh.Attach(context.Background(), 0))
}

func TestKeyboardNudgeUpdatesModelOnce(t *testing.T) {
	e, rec := newEngine(t, Options{})
	require.NoError(t, e.Select("1"))

	assert.True(t, e.KeyDown(ArrowRight))
	assert.Equal(t, 251.0, e.Lines()[0].AnchorX)
	assert.Equal(t, 1, rec.count(EventModelUpdated))

	assert.True(t, e.KeyDown(ArrowUp))
	assert.Equal(t, 249.0, e.Lines()[0].AnchorY)

	rec.reset()
	assert.False(t, e.KeyDown(Key("a")))
	assert.Zero(t, rec.count(EventModelUpdated))
}

func TestKeyDownWithoutSelection(t *testing.T) {
	e, rec := newEngine(t, Options{})
	assert.False(t, e.KeyDown(ArrowRight))
	assert.Equal(t, 250.0, e.Lines()[0].AnchorX)
	assert.Zero(t, rec.count(EventModelUpdated))
}

func TestDragPropagatesOnPointerUp(t *testing.T) {
	e, _ := newEngine(t, Options{})
	require.NoError(t, e.Drag("1", 10.4, -20.6))
	assert.Equal(t, 250.0, e.Lines()[0].AnchorX, "drag alone must not touch the model")

	require.NoError(t, e.PointerUp("1"))
	line := e.Lines()[0]
	assert.Equal(t, 260.0, line.AnchorX)
	assert.Equal(t, 229.0, line.AnchorY)

	assert.Error(t, e.Drag("missing", 1, 1))
}

func TestRebuildKeepsLivePosition(t *testing.T) {
	e, _ := newEngine(t, Options{})
	require.NoError(t, e.Drag("1", 30, 0))
	require.NoError(t, e.UpdateLine("1", FieldText, "HAWKS"))
	require.NoError(t, e.Rebuild(context.Background()))

	obj, ok := e.Object("1")
	require.True(t, ok)
	assert.InDelta(t, 280, obj.Center().X, 1e-9)
}

func TestRebuildEmitsFade(t *testing.T) {
	e, rec := newEngine(t, Options{})
	require.NoError(t, e.Rebuild(context.Background()))

	rec.mu.Lock()
	var fades []float64
	for _, ev := range rec.events {
		if ev.Kind == EventOpacity {
			fades = append(fades, ev.Opacity)
		}
	}
	rec.mu.Unlock()
	assert.Equal(t, []float64{0, 1}, fades)
	assert.Equal(t, 1, rec.count(EventSceneRebuilt))
}

func TestUpdateLineRules(t *testing.T) {
	e, _ := newEngine(t, Options{})

	require.NoError(t, e.UpdateLine("1", FieldFontSize, "83"))
	assert.Equal(t, 80.0, e.Lines()[0].FontSizePt)
	require.NoError(t, e.UpdateLine("1", FieldFontSize, "95"))
	assert.Equal(t, 90.0, e.Lines()[0].FontSizePt)
	require.NoError(t, e.UpdateLine("1", FieldFontSize, "500"))
	assert.Equal(t, 200.0, e.Lines()[0].FontSizePt)

	require.NoError(t, e.UpdateLine("1", FieldStrokeWidth, "8"))
	require.NoError(t, e.UpdateLine("1", FieldStrokeWidth, "7"))
	assert.Equal(t, 8.0, e.Lines()[0].StrokeWidth)

	require.NoError(t, e.UpdateLine("1", FieldLetterSpacing, "L"))
	assert.Equal(t, model.SpacingLarge, e.Lines()[0].LetterSpacing)

	require.NoError(t, e.SelectColor(ColorTarget{LineID: "1", Slot: SlotBorder}, "#ff0000"))
	assert.Equal(t, "#ff0000", e.Lines()[0].StrokeColor)
	require.NoError(t, e.SelectColor(ColorTarget{LineID: "1", Slot: SlotText}, "#1e3a8a"))
	assert.Equal(t, "#1e3a8a", e.Lines()[0].FillColor)

	assert.Error(t, e.UpdateLine("1", FieldFill, "not-a-color"))
	assert.Error(t, e.UpdateLine("1", FieldFont, "Comic Sans"))
	assert.Error(t, e.UpdateLine("1", FieldFontSize, "big"))
	assert.Error(t, e.UpdateLine("1", Field("rotation"), "1"))
	assert.ErrorIs(t, e.UpdateLine("9", FieldText, "x"), ErrUnknownLine)
}

func TestAnchorEditMovesLiveObjectWithoutRebuild(t *testing.T) {
	e, rec := newEngine(t, Options{})
	require.NoError(t, e.UpdateLine("1", FieldAnchorX, "100"))

	obj, ok := e.Object("1")
	require.True(t, ok)
	assert.InDelta(t, 100, obj.Center().X, 1e-9)
	assert.Zero(t, rec.count(EventOpacity))
}

func TestAddAndRemoveLines(t *testing.T) {
	e, _ := newEngine(t, Options{})
	line, err := e.AddLine()
	require.NoError(t, err)
	assert.Equal(t, "2", line.ID)
	assert.Equal(t, "ATHLETICS", line.Text)
	assert.Equal(t, 238.0, line.AnchorX)
	assert.Equal(t, 310.0, line.AnchorY)

	require.NoError(t, e.Rebuild(context.Background()))
	assert.Equal(t, []string{"1", "2"}, e.Stacking())

	assert.ErrorIs(t, e.RemoveLine("1"), ErrFirstLine)
	require.NoError(t, e.RemoveLine("2"))
	assert.Equal(t, []string{"1"}, e.Stacking())
	require.Len(t, e.Lines(), 1)

	third, err := e.AddLine()
	require.NoError(t, err)
	assert.Equal(t, "2", third.ID)
}

func TestDebouncedRebuildCoalesces(t *testing.T) {
	e, rec := newEngine(t, Options{Debounce: 20 * time.Millisecond})
	for _, text := range []string{"A", "AB", "ABC"} {
		require.NoError(t, e.UpdateLine("1", FieldText, text))
	}
	assert.Eventually(t, func() bool { return rec.count(EventSceneRebuilt) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count(EventSceneRebuilt))
}

func TestUnavailableFontSkipsLine(t *testing.T) {
	logger, hook := test.NewNullLogger()
	catalog := fonts.Catalog{
		{Name: "Go Bold", Src: "builtin:gobold"},
		{Name: "Broken", Src: "builtin:nope"},
	}
	e, _ := newEngine(t, Options{Logger: logger, Glyphs: glyph.New(glyph.Options{Catalog: catalog, Logger: logger})})
	require.NoError(t, e.UpdateLine("1", FieldFont, "Broken"))
	require.NoError(t, e.Rebuild(context.Background()))

	_, ok := e.Object("1")
	assert.False(t, ok)
	assert.Len(t, e.Lines(), 1)
	assert.NotEmpty(t, hook.AllEntries())
}

// gatedLoader 对指定字体阻塞，直到 release 被关闭。
type gatedLoader struct {
	slow    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *gatedLoader) Load(ctx context.Context, en fonts.Entry) ([]byte, error) {
	if en.Name == l.slow {
		l.once.Do(func() { close(l.entered) })
		<-l.release
	}
	return (&fonts.SourceLoader{}).Load(ctx, en)
}

func TestStaleRebuildIsDropped(t *testing.T) {
	logger, _ := test.NewNullLogger()
	catalog := fonts.Catalog{
		{Name: "Fast", Src: "builtin:goregular"},
		{Name: "Slow", Src: "builtin:gobold"},
	}
	loader := &gatedLoader{slow: "Slow", entered: make(chan struct{}), release: make(chan struct{})}
	glyphs := glyph.New(glyph.Options{Catalog: catalog, Loader: loader, Logger: logger})
	e, _ := newEngine(t, Options{Glyphs: glyphs})

	fast, ok := e.Object("1")
	require.True(t, ok)

	require.NoError(t, e.UpdateLine("1", FieldFont, "Slow"))
	done := make(chan error, 1)
	go func() { done <- e.Rebuild(context.Background()) }()
	<-loader.entered

	require.NoError(t, e.UpdateLine("1", FieldFont, "Fast"))
	require.NoError(t, e.Rebuild(context.Background()))
	close(loader.release)
	require.NoError(t, <-done)

	obj, ok := e.Object("1")
	require.True(t, ok)
	assert.InDelta(t, fast.Width, obj.Width, 1e-9)
	assert.Equal(t, 1.0, e.Opacity())
}

func TestNudgeDuringRebuildSurvivesCommit(t *testing.T) {
	logger, _ := test.NewNullLogger()
	catalog := fonts.Catalog{
		{Name: "Fast", Src: "builtin:goregular"},
		{Name: "Slow", Src: "builtin:gobold"},
	}
	loader := &gatedLoader{slow: "Slow", entered: make(chan struct{}), release: make(chan struct{})}
	glyphs := glyph.New(glyph.Options{Catalog: catalog, Loader: loader, Logger: logger})
	e, _ := newEngine(t, Options{Glyphs: glyphs})

	second, err := e.AddLine()
	require.NoError(t, err)
	require.NoError(t, e.UpdateLine(second.ID, FieldFont, "Slow"))
	require.NoError(t, e.Select("1"))

	done := make(chan error, 1)
	go func() { done <- e.Rebuild(context.Background()) }()
	<-loader.entered

	// 行 2 的字体仍在加载时微调行 1。
	assert.True(t, e.KeyDown(ArrowRight))
	close(loader.release)
	require.NoError(t, <-done)

	obj, ok := e.Object("1")
	require.True(t, ok)
	line := e.Lines()[0]
	assert.Equal(t, 251.0, line.AnchorX)
	assert.InDelta(t, line.AnchorX, obj.Center().X, 1e-6)
	assert.InDelta(t, line.AnchorY, obj.Center().Y, 1e-6)
	_, ok = e.Object(second.ID)
	assert.True(t, ok)
}

func TestCenterComposition(t *testing.T) {
	e, _ := newEngine(t, Options{})
	require.NoError(t, e.Drag("1", -100, 40))
	require.NoError(t, e.CenterComposition())

	obj, ok := e.Object("1")
	require.True(t, ok)
	assert.InDelta(t, 250, obj.Center().X, 1e-9)
	assert.InDelta(t, 290, obj.Center().Y, 1e-9)
	assert.Equal(t, 250.0, e.Lines()[0].AnchorX)
	assert.Equal(t, 290.0, e.Lines()[0].AnchorY)
	assert.Equal(t, []string{"1"}, e.Stacking(), "centering must not leave extra objects")
}

func TestCenterEachObject(t *testing.T) {
	e, _ := newEngine(t, Options{})
	_, err := e.AddLine()
	require.NoError(t, err)
	require.NoError(t, e.Rebuild(context.Background()))
	require.NoError(t, e.CenterEachObject())
	for _, l := range e.Lines() {
		assert.Equal(t, 250.0, l.AnchorX)
	}
}

func TestSubscribeCancel(t *testing.T) {
	e, _ := newEngine(t, Options{})
	var n int
	cancel := e.Subscribe(func(Event) { n++ })
	require.NoError(t, e.UpdateLine("1", FieldAnchorY, "200"))
	cancel()
	require.NoError(t, e.UpdateLine("1", FieldAnchorY, "210"))
	assert.Equal(t, 1, n)
}

func TestSubscriberMayCallBack(t *testing.T) {
	e, _ := newEngine(t, Options{})
	var seen []model.TextLine
	e.Subscribe(func(ev Event) {
		if ev.Kind == EventModelUpdated {
			seen = e.Lines()
		}
	})
	require.NoError(t, e.UpdateLine("1", FieldText, "HAWKS"))
	require.Len(t, seen, 1)
	assert.Equal(t, "HAWKS", seen[0].Text)
}

// failingStore 的所有操作都失败。
type failingStore struct{}

var errDown = errors.New("store down")

func (failingStore) Insert(context.Context, string, json.RawMessage, []string) (*model.TemplateRecord, error) {
	return nil, errDown
}

func (failingStore) SelectAll(context.Context) ([]model.TemplateRecord, error) { return nil, errDown }

func (failingStore) SelectOne(context.Context, string) (*model.TemplateRecord, error) {
	return nil, errDown
}

var _ store.Store = failingStore{}
