package canvas

import (
	"context"
	"errors"
)

// ErrNoSelection 表示画布上没有激活对象。
var ErrNoSelection = errors.New("canvas: no active selection")

// ShapeKind 图形种类
type ShapeKind string

const (
	ShapeCircle    ShapeKind = "circle"
	ShapeRectangle ShapeKind = "rect"
	ShapeTriangle  ShapeKind = "triangle"
)

// ColorName 颜色名称，取值限定在 Colors 中。
type ColorName string

const (
	ColorRed    ColorName = "red"
	ColorBlue   ColorName = "blue"
	ColorGreen  ColorName = "green"
	ColorYellow ColorName = "yellow"
	ColorBlack  ColorName = "black"
	ColorWhite  ColorName = "white"
	ColorPurple ColorName = "purple"
	ColorOrange ColorName = "orange"
)

// colors 的顺序即颜色匹配时的扫描顺序，不可调整。
var colors = [...]ColorName{
	ColorRed,
	ColorBlue,
	ColorGreen,
	ColorYellow,
	ColorBlack,
	ColorWhite,
	ColorPurple,
	ColorOrange,
}

// Colors 按固定枚举顺序返回全部颜色。
func Colors() []ColorName {
	out := make([]ColorName, len(colors))
	copy(out, colors[:])
	return out
}

// Valid 判断颜色是否属于封闭集合。
func (c ColorName) Valid() bool {
	for _, known := range colors {
		if c == known {
			return true
		}
	}
	return false
}

// Valid 判断图形种类是否受支持。
func (s ShapeKind) Valid() bool {
	switch s {
	case ShapeCircle, ShapeRectangle, ShapeTriangle:
		return true
	}
	return false
}

// Selection 当前激活对象的句柄，解释器只查询并原样传回。
type Selection struct {
	ID string `json:"id"`
}

// Actuator 画布执行器。
// 变更类方法返回的错误只会被记录，不会向语音控制器的调用方传播。
type Actuator interface {
	AddText(ctx context.Context, content string) error
	AddShape(ctx context.Context, kind ShapeKind) error
	DeleteActiveSelection(ctx context.Context) error
	SetActiveColor(ctx context.Context, color ColorName) error
	// ActiveSelection 返回当前激活对象；没有时 ok 为 false。
	ActiveSelection(ctx context.Context) (sel Selection, ok bool)
	CenterObject(ctx context.Context, sel Selection) error
	RequestRender(ctx context.Context) error
}
