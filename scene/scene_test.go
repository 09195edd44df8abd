package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/canvas"
)

func square(id Identity, kind Kind, size float64) *Object {
	return NewObject(id, kind, size, size, &Node{Path: canvas.Rectangle(size, size), Fill: "#ff0000"})
}

func TestObjectCenterHonorsOrigin(t *testing.T) {
	text := square("1", KindText, 100)
	text.Origin = OriginCenter
	text.Left, text.Top = 250, 150
	assert.Equal(t, Point{X: 250, Y: 150}, text.Center())

	asset := square("a", KindAsset, 100)
	asset.Left, asset.Top = 10, 20
	asset.ScaleX, asset.ScaleY = 0.5, 0.5
	assert.Equal(t, Point{X: 35, Y: 45}, asset.Center())
	assert.Equal(t, Rect{X0: 10, Y0: 20, X1: 60, Y1: 70}, asset.Bounds())

	asset.SetCenter(Point{X: 100, Y: 100})
	assert.Equal(t, 75.0, asset.Left)
	assert.Equal(t, 75.0, asset.Top)
}

func TestSceneIdentityIndex(t *testing.T) {
	s := New(500, 500)
	require.NoError(t, s.Add(square("1", KindText, 10)))
	require.NoError(t, s.Add(square("2", KindText, 10)))

	err := s.Add(square("1", KindText, 10))
	assert.True(t, errors.Is(err, ErrDuplicate))

	o, ok := s.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, Identity("2"), o.ID())

	assert.True(t, s.Remove("1"))
	assert.False(t, s.Remove("1"))
	_, ok = s.Lookup("1")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSceneZOrder(t *testing.T) {
	s := New(500, 500)
	for _, id := range []Identity{"a", "b", "c"} {
		require.NoError(t, s.Add(square(id, KindAsset, 10)))
	}
	require.True(t, s.BringToFront("a"))
	assert.Equal(t, []Identity{"b", "c", "a"}, ids(s))
	require.True(t, s.SendToBack("c"))
	assert.Equal(t, []Identity{"c", "b", "a"}, ids(s))
	assert.False(t, s.BringToFront("zzz"))
}

func TestSceneActiveSelection(t *testing.T) {
	s := New(500, 500)
	require.NoError(t, s.Add(square("a", KindAsset, 10)))
	assert.Nil(t, s.Active())
	assert.False(t, s.SetActive("missing"))
	require.True(t, s.SetActive("a"))
	assert.Equal(t, Identity("a"), s.Active().ID())
	s.Remove("a")
	assert.Nil(t, s.Active())
}

func TestSceneBoundsUnion(t *testing.T) {
	s := New(500, 500)
	_, ok := s.Bounds()
	assert.False(t, ok)

	a := square("a", KindAsset, 10)
	b := square("b", KindAsset, 10)
	b.Left, b.Top = 90, 40
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))
	r, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, Rect{X0: 0, Y0: 0, X1: 100, Y1: 50}, r)
	assert.Equal(t, Point{X: 250, Y: 250}, s.Center())
}

func TestLayoutRoundTrip(t *testing.T) {
	s := New(400, 400)
	s.Background = "#eeeeee"
	text := square("1", KindText, 20)
	text.Origin = OriginCenter
	text.Left, text.Top = 200, 120
	text.LockScaling = true
	asset := square("svg-1", KindAsset, 50)
	asset.Left, asset.Top, asset.ScaleX, asset.ScaleY = 10, 30, 0.5, 0.25
	asset.Nodes[0].Stroke = "#000000"
	asset.Nodes[0].StrokeWidth = 2
	require.NoError(t, s.Add(text))
	require.NoError(t, s.Add(asset))

	raw, err := s.MarshalLayout()
	require.NoError(t, err)

	layout, err := UnmarshalLayout(raw)
	require.NoError(t, err)
	assert.Equal(t, 400.0, layout.Width)
	assert.Equal(t, "#eeeeee", layout.Background)
	require.Len(t, layout.Objects, 2)

	gotText := layout.Objects[0]
	assert.Equal(t, Identity("1"), gotText.ID())
	assert.Equal(t, KindText, gotText.Kind)
	assert.Equal(t, OriginCenter, gotText.Origin)
	assert.Equal(t, text.Center(), gotText.Center())
	assert.True(t, gotText.LockScaling)

	gotAsset := layout.Objects[1]
	assert.Equal(t, KindAsset, gotAsset.Kind)
	assert.Equal(t, asset.Bounds(), gotAsset.Bounds())
	require.Len(t, gotAsset.Nodes, 1)
	assert.Equal(t, "#000000", gotAsset.Nodes[0].Stroke)
	assert.Equal(t, 2.0, gotAsset.Nodes[0].StrokeWidth)
	assert.False(t, gotAsset.Nodes[0].Path.Empty())
}

func TestUnmarshalLayoutRejectsGarbage(t *testing.T) {
	_, err := UnmarshalLayout(nil)
	assert.Error(t, err)
	_, err = UnmarshalLayout([]byte(`{"objects":[{"id":""}]}`))
	assert.Error(t, err)
	_, err = UnmarshalLayout([]byte(`{"objects":[{"id":"a"},{"id":"a"}]}`))
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = UnmarshalLayout([]byte(`not json`))
	assert.Error(t, err)
}

func ids(s *Scene) []Identity {
	var out []Identity
	for _, o := range s.Objects() {
		out = append(out, o.ID())
	}
	return out
}
