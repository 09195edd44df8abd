package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/shirtgen/model"
)

const twoColorSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">` +
	`<rect width="50" height="50" fill="#ff0000"/>` +
	`<rect x="50" width="50" height="50" fill="#0000ff" stroke="#ff0000"/>` +
	`</svg>`

func fixedIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestUploadAssetPlacement(t *testing.T) {
	e, rec := newEngine(t, Options{NewID: fixedIDs("a1", "a2")})
	got, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)

	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, "Logo 1", got.Name)
	assert.Equal(t, model.Position{Left: 250, Top: 150}, got.Position)
	assert.InDelta(t, 0.8, got.Scale.X, 1e-9)
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, got.Colors.Fill)
	assert.Equal(t, "a1", e.SelectedAsset())
	assert.Equal(t, []string{"1", "a1"}, e.Stacking())
	assert.Equal(t, 1, rec.count(EventModelUpdated))

	second, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)
	assert.Equal(t, "Logo 2", second.Name)
}

func TestUploadFileIgnoresNonVector(t *testing.T) {
	e, _ := newEngine(t, Options{})
	_, ok, err := e.UploadFile("photo.png", []byte("\x89PNG\r\n\x1a\nrest"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, e.Assets())

	got, ok, err := e.UploadFile("logo.svg", []byte(twoColorSVG))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Logo 1", got.Name)
}

func TestUploadInvalidMarkupFails(t *testing.T) {
	e, _ := newEngine(t, Options{})
	_, err := e.UploadAsset("", "plain text")
	assert.Error(t, err)
	assert.Empty(t, e.Assets())
	assert.Equal(t, 1.0, e.Opacity())
}

func TestChangeAssetColor(t *testing.T) {
	e, _ := newEngine(t, Options{NewID: fixedIDs("a1")})
	_, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)

	require.NoError(t, e.ChangeAssetColor("", "#ff0000", "#00ff00"))

	got := e.Assets()[0]
	assert.Equal(t, []string{"#00ff00", "#0000ff"}, got.Colors.Fill)
	assert.Equal(t, []string{"#00ff00"}, got.Colors.Stroke)
	assert.NotContains(t, got.Markup, "#ff0000")

	obj, ok := e.Object("a1")
	require.True(t, ok)
	assert.Equal(t, "#00ff00", obj.Nodes[0].Fill)
	assert.Equal(t, "#00ff00", obj.Nodes[1].Stroke)
	assert.Equal(t, "#0000ff", obj.Nodes[1].Fill)

	assert.ErrorIs(t, e.ChangeAssetColor("nope", "#000000", "#ffffff"), ErrUnknownAsset)
}

func TestAssetMovePropagatesTopLeft(t *testing.T) {
	e, _ := newEngine(t, Options{NewID: fixedIDs("a1")})
	_, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)

	require.NoError(t, e.Drag("a1", 10.5, -5))
	assert.Equal(t, model.Position{Left: 250, Top: 150}, e.Assets()[0].Position)
	require.NoError(t, e.ObjectModified("a1"))
	assert.Equal(t, model.Position{Left: 260.5, Top: 145}, e.Assets()[0].Position)

	require.NoError(t, e.Select("a1"))
	assert.True(t, e.KeyDown(ArrowDown))
	assert.Equal(t, 146.0, e.Assets()[0].Position.Top)
}

func TestRenameAndRemoveAsset(t *testing.T) {
	e, _ := newEngine(t, Options{NewID: fixedIDs("a1", "a2")})
	_, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)
	_, err = e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)

	require.NoError(t, e.RenameAsset("a1", "Eagle"))
	assert.Equal(t, "Eagle", e.Assets()[0].Name)

	require.NoError(t, e.RemoveAsset("a2"))
	assert.Equal(t, "", e.SelectedAsset())
	assert.Equal(t, []string{"1", "a1"}, e.Stacking())
	assert.ErrorIs(t, e.RemoveAsset("a2"), ErrUnknownAsset)
	assert.ErrorIs(t, e.RenameAsset("a2", "x"), ErrUnknownAsset)
}

func TestAssetReorderKeepsModelOrder(t *testing.T) {
	e, _ := newEngine(t, Options{NewID: fixedIDs("a1", "a2")})
	_, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)
	_, err = e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)

	require.NoError(t, e.AssetToBack("a2"))
	assert.Equal(t, []string{"a2", "1", "a1"}, e.Stacking())
	assert.Equal(t, "a2", e.Assets()[0].ID)

	require.NoError(t, e.SelectAsset("a2"))
	e.BringToFront()
	assert.Equal(t, []string{"1", "a1", "a2"}, e.Stacking())
	assert.Equal(t, "a2", e.Assets()[1].ID)

	require.NoError(t, e.AssetToFront("a1"))
	assert.Equal(t, "a1", e.Assets()[1].ID)
}

func TestReorderWithoutSelectionIsNoop(t *testing.T) {
	e, _ := newEngine(t, Options{})
	_, err := e.AddLine()
	require.NoError(t, err)
	require.NoError(t, e.Rebuild(t.Context()))

	e.SendToBack()
	assert.Equal(t, []string{"1", "2"}, e.Stacking())

	require.NoError(t, e.Select("2"))
	e.SendToBack()
	assert.Equal(t, []string{"2", "1"}, e.Stacking())
}

func TestRebuildOrdersTextBeforeAssetsAndKeepsSelection(t *testing.T) {
	e, _ := newEngine(t, Options{NewID: fixedIDs("a1")})
	_, err := e.UploadAsset("", twoColorSVG)
	require.NoError(t, err)
	require.NoError(t, e.AssetToBack("a1"))
	_, err = e.AddLine()
	require.NoError(t, err)
	require.NoError(t, e.Select("1"))

	require.NoError(t, e.Rebuild(t.Context()))
	assert.Equal(t, []string{"1", "2", "a1"}, e.Stacking())
	assert.Equal(t, "1", e.Active())

	obj, ok := e.Object("a1")
	require.True(t, ok)
	assert.Equal(t, 250.0, obj.Left)
}
