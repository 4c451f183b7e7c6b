package canvas

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// 🖼️ 内存画布
// =============================================================================

// Object 画布上的一个对象
type Object struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"` // text, circle, rect, triangle
	Text   string    `json:"text,omitempty"`
	Fill   ColorName `json:"fill"`
	Left   float64   `json:"left"`
	Top    float64   `json:"top"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

// BoardConfig 内存画布配置
type BoardConfig struct {
	Width       float64   `yaml:"width" json:"width"`
	Height      float64   `yaml:"height" json:"height"`
	DefaultFill ColorName `yaml:"default_fill" json:"default_fill"`
}

// DefaultBoardConfig 返回默认画布配置
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Width:       800,
		Height:      600,
		DefaultFill: ColorBlack,
	}
}

// Board 是 Actuator 的内存实现。新加入的对象成为激活对象。
type Board struct {
	config  BoardConfig
	logger  *zap.Logger
	mu      sync.RWMutex
	objects []Object
	active  string
	renders int
}

var _ Actuator = (*Board)(nil)

// NewBoard 创建内存画布
func NewBoard(config BoardConfig, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Width <= 0 || config.Height <= 0 {
		def := DefaultBoardConfig()
		config.Width, config.Height = def.Width, def.Height
	}
	if !config.DefaultFill.Valid() {
		config.DefaultFill = ColorBlack
	}
	return &Board{
		config: config,
		logger: logger.With(zap.String("component", "board")),
	}
}

func (b *Board) add(obj Object) {
	obj.ID = uuid.NewString()
	obj.Fill = b.config.DefaultFill
	obj.Left, obj.Top = 100, 100

	b.mu.Lock()
	b.objects = append(b.objects, obj)
	b.active = obj.ID
	b.mu.Unlock()

	b.logger.Debug("object added", zap.String("id", obj.ID), zap.String("type", obj.Type))
}

// AddText 添加文本对象
func (b *Board) AddText(_ context.Context, content string) error {
	b.add(Object{Type: "text", Text: content, Width: 200, Height: 40})
	return nil
}

// AddShape 添加图形对象
func (b *Board) AddShape(_ context.Context, kind ShapeKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown shape kind %q", kind)
	}
	b.add(Object{Type: string(kind), Width: 100, Height: 100})
	return nil
}

// DeleteActiveSelection 删除激活对象
func (b *Board) DeleteActiveSelection(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(b.active)
	if idx < 0 {
		return ErrNoSelection
	}
	b.objects = append(b.objects[:idx], b.objects[idx+1:]...)
	b.active = ""
	return nil
}

// SetActiveColor 修改激活对象的填充色，没有激活对象时不做任何事。
func (b *Board) SetActiveColor(_ context.Context, color ColorName) error {
	if !color.Valid() {
		return fmt.Errorf("unknown color %q", color)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx := b.indexLocked(b.active); idx >= 0 {
		b.objects[idx].Fill = color
	}
	return nil
}

// ActiveSelection 返回激活对象
func (b *Board) ActiveSelection(_ context.Context) (Selection, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.indexLocked(b.active) < 0 {
		return Selection{}, false
	}
	return Selection{ID: b.active}, true
}

// CenterObject 将对象移动到画布中心
func (b *Board) CenterObject(_ context.Context, sel Selection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(sel.ID)
	if idx < 0 {
		return fmt.Errorf("object %q: %w", sel.ID, ErrNoSelection)
	}
	obj := &b.objects[idx]
	obj.Left = (b.config.Width - obj.Width) / 2
	obj.Top = (b.config.Height - obj.Height) / 2
	return nil
}

// RequestRender 记录一次重绘请求
func (b *Board) RequestRender(_ context.Context) error {
	b.mu.Lock()
	b.renders++
	b.mu.Unlock()
	return nil
}

// Select 激活指定对象
func (b *Board) Select(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexLocked(id) < 0 {
		return fmt.Errorf("object %q not found", id)
	}
	b.active = id
	return nil
}

// ClearSelection 取消激活
func (b *Board) ClearSelection() {
	b.mu.Lock()
	b.active = ""
	b.mu.Unlock()
}

// Objects 返回对象快照
func (b *Board) Objects() []Object {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Object, len(b.objects))
	copy(out, b.objects)
	return out
}

// Renders 返回累计重绘次数
func (b *Board) Renders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.renders
}

func (b *Board) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range b.objects {
		if b.objects[i].ID == id {
			return i
		}
	}
	return -1
}
