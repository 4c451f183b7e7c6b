package canvas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 词汇 ---

func TestColors_FixedOrder(t *testing.T) {
	assert.Equal(t, []ColorName{
		"red", "blue", "green", "yellow", "black", "white", "purple", "orange",
	}, Colors())

	// 返回副本，调用方修改不影响内部顺序
	c := Colors()
	c[0] = "teal"
	assert.Equal(t, ColorRed, Colors()[0])
}

func TestColorName_Valid(t *testing.T) {
	assert.True(t, ColorPurple.Valid())
	assert.False(t, ColorName("teal").Valid())
	assert.False(t, ColorName("").Valid())
}

func TestShapeKind_Valid(t *testing.T) {
	assert.True(t, ShapeRectangle.Valid())
	assert.False(t, ShapeKind("box").Valid())
}

// --- Board ---

func TestBoard_AddSelectsNewObject(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(DefaultBoardConfig(), nil)

	require.NoError(t, b.AddShape(ctx, ShapeCircle))
	require.NoError(t, b.AddText(ctx, "New Text"))

	objs := b.Objects()
	require.Len(t, objs, 2)
	assert.Equal(t, "circle", objs[0].Type)
	assert.Equal(t, "text", objs[1].Type)
	assert.Equal(t, "New Text", objs[1].Text)
	assert.NotEqual(t, objs[0].ID, objs[1].ID)

	sel, ok := b.ActiveSelection(ctx)
	require.True(t, ok)
	assert.Equal(t, objs[1].ID, sel.ID)
}

func TestBoard_AddShape_Unknown(t *testing.T) {
	b := NewBoard(DefaultBoardConfig(), nil)
	assert.Error(t, b.AddShape(context.Background(), "hexagon"))
	assert.Empty(t, b.Objects())
}

func TestBoard_DeleteActiveSelection(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(DefaultBoardConfig(), nil)

	assert.ErrorIs(t, b.DeleteActiveSelection(ctx), ErrNoSelection)

	require.NoError(t, b.AddShape(ctx, ShapeTriangle))
	require.NoError(t, b.DeleteActiveSelection(ctx))
	assert.Empty(t, b.Objects())

	_, ok := b.ActiveSelection(ctx)
	assert.False(t, ok)
}

func TestBoard_SetActiveColor(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(DefaultBoardConfig(), nil)

	// 没有选中对象时为空操作
	require.NoError(t, b.SetActiveColor(ctx, ColorRed))

	require.NoError(t, b.AddShape(ctx, ShapeRectangle))
	require.NoError(t, b.SetActiveColor(ctx, ColorOrange))
	assert.Equal(t, ColorOrange, b.Objects()[0].Fill)

	assert.Error(t, b.SetActiveColor(ctx, "teal"))
}

func TestBoard_CenterObject(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(BoardConfig{Width: 400, Height: 300}, nil)

	require.NoError(t, b.AddShape(ctx, ShapeRectangle))
	sel, ok := b.ActiveSelection(ctx)
	require.True(t, ok)

	require.NoError(t, b.CenterObject(ctx, sel))
	obj := b.Objects()[0]
	assert.Equal(t, 150.0, obj.Left)
	assert.Equal(t, 100.0, obj.Top)

	assert.ErrorIs(t, b.CenterObject(ctx, Selection{ID: "missing"}), ErrNoSelection)
}

func TestBoard_SelectAndClear(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(DefaultBoardConfig(), nil)

	require.NoError(t, b.AddShape(ctx, ShapeCircle))
	require.NoError(t, b.AddShape(ctx, ShapeTriangle))
	first := b.Objects()[0].ID

	require.NoError(t, b.Select(first))
	sel, ok := b.ActiveSelection(ctx)
	require.True(t, ok)
	assert.Equal(t, first, sel.ID)

	assert.Error(t, b.Select("missing"))

	b.ClearSelection()
	_, ok = b.ActiveSelection(ctx)
	assert.False(t, ok)
}

func TestBoard_RequestRender(t *testing.T) {
	b := NewBoard(DefaultBoardConfig(), nil)
	require.NoError(t, b.RequestRender(context.Background()))
	require.NoError(t, b.RequestRender(context.Background()))
	assert.Equal(t, 2, b.Renders())
}
