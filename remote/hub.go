package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/voicecanvas/canvas"
	"github.com/BaSui01/voicecanvas/recognition"
)

// ErrNoEditor 表示当前没有接入的编辑器。
var ErrNoEditor = errors.New("remote: no editor attached")

// errEditorReplaced 旧连接被新编辑器替换
var errEditorReplaced = errors.New("remote: editor replaced")

// =============================================================================
// 🌉 编辑器桥接 Hub
// =============================================================================

// Hub 单编辑器 WebSocket 桥接。
type Hub struct {
	logger       *zap.Logger
	origins      []string
	outboxSize   int
	writeTimeout time.Duration
	onConnection func(connected int)

	mu              sync.Mutex
	conn            *editorConn
	selection       *canvas.Selection
	speechSupported bool
	attempts        map[string]recognition.Handler
}

// HubOption 配置 Hub
type HubOption func(*Hub)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOriginPatterns 设置允许的跨域 Origin 模式
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) { h.origins = patterns }
}

// WithConnectionHook 连接数变化回调（0 或 1）
func WithConnectionHook(fn func(connected int)) HubOption {
	return func(h *Hub) { h.onConnection = fn }
}

// WithWriteTimeout 设置单帧写超时
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// NewHub 创建 Hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:          zap.NewNop(),
		outboxSize:      32,
		writeTimeout:    5 * time.Second,
		speechSupported: true,
		attempts:        make(map[string]recognition.Handler),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(zap.String("component", "editor_hub"))
	return h
}

// Attached 是否有编辑器接入
func (h *Hub) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn != nil
}

// ServeHTTP 升级为 WebSocket 并服务到连接断开。
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 劫持后的连接沿用服务器读写超时，升级前清除。
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	ec := newEditorConn(ws, h.outboxSize)
	h.attach(ec)

	// 读写任一方结束即取消另一方
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.writeLoop(ctx, ec) })
	g.Go(func() error { return h.readLoop(ctx, ec) })
	err = g.Wait()
	h.detach(ec, err)
}

func (h *Hub) attach(ec *editorConn) {
	h.mu.Lock()
	old := h.conn
	h.conn = ec
	h.selection = nil
	h.speechSupported = true
	pending := h.takeAttemptsLocked()
	h.mu.Unlock()

	if old != nil {
		h.logger.Info("editor replaced by new connection")
		old.close(websocket.StatusNormalClosure, "replaced")
	} else {
		h.logger.Info("editor attached")
		h.notifyConnections(1)
	}
	failAttempts(pending, errEditorReplaced)
}

func (h *Hub) detach(ec *editorConn, cause error) {
	h.mu.Lock()
	if h.conn != ec {
		h.mu.Unlock()
		ec.close(websocket.StatusNormalClosure, "")
		return
	}
	h.conn = nil
	h.selection = nil
	pending := h.takeAttemptsLocked()
	h.mu.Unlock()

	ec.close(websocket.StatusNormalClosure, "")
	h.logger.Info("editor detached", zap.Error(cause))
	h.notifyConnections(0)
	failAttempts(pending, ErrNoEditor)
}

func (h *Hub) notifyConnections(n int) {
	if h.onConnection != nil {
		h.onConnection(n)
	}
}

func (h *Hub) takeAttemptsLocked() []recognition.Handler {
	if len(h.attempts) == 0 {
		return nil
	}
	pending := make([]recognition.Handler, 0, len(h.attempts))
	for id, handler := range h.attempts {
		pending = append(pending, handler)
		delete(h.attempts, id)
	}
	return pending
}

func failAttempts(pending []recognition.Handler, err error) {
	for _, handler := range pending {
		handler.OnError(err)
	}
}

func (h *Hub) readLoop(ctx context.Context, ec *editorConn) error {
	for {
		_, data, err := ec.ws.Read(ctx)
		if err != nil {
			return fmt.Errorf("websocket read: %w", err)
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("invalid editor message", zap.Error(err))
			continue
		}
		h.handle(ec, msg)
	}
}

func (h *Hub) writeLoop(ctx context.Context, ec *editorConn) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ec.done:
			return nil
		case data := <-ec.out:
			writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := ec.ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Warn("websocket write failed", zap.Error(err))
				return fmt.Errorf("websocket write: %w", err)
			}
		}
	}
}

// handle 处理一条上行消息。识别回调在锁外执行。
func (h *Hub) handle(ec *editorConn, msg Inbound) {
	switch msg.Type {
	case TypeHello:
		h.mu.Lock()
		if h.conn == ec && msg.SpeechSupported != nil {
			h.speechSupported = *msg.SpeechSupported
		}
		h.mu.Unlock()
		h.logger.Debug("editor hello", zap.Boolp("speech_supported", msg.SpeechSupported))

	case TypeSelection:
		h.mu.Lock()
		if h.conn == ec {
			if msg.Selection != nil && msg.Selection.ID != "" {
				sel := *msg.Selection
				h.selection = &sel
			} else {
				h.selection = nil
			}
		}
		h.mu.Unlock()

	case TypeRecognitionEvent:
		h.handleRecognitionEvent(ec, msg)

	default:
		h.logger.Debug("unknown editor message", zap.String("type", msg.Type))
	}
}

func (h *Hub) handleRecognitionEvent(ec *editorConn, msg Inbound) {
	h.mu.Lock()
	handler, ok := h.attempts[msg.Attempt]
	if ok && h.conn == ec && (msg.Event == EventError || msg.Event == EventEnd) {
		delete(h.attempts, msg.Attempt)
	}
	h.mu.Unlock()

	if !ok {
		h.logger.Debug("event for unknown attempt dropped",
			zap.String("attempt", msg.Attempt),
			zap.String("event", msg.Event))
		return
	}

	switch msg.Event {
	case EventStart:
		handler.OnStart()
	case EventResult:
		handler.OnResult(msg.Transcript)
	case EventError:
		handler.OnError(fmt.Errorf("editor recognition error: %s", msg.Error))
	case EventEnd:
		handler.OnEnd()
	default:
		h.logger.Debug("unknown recognition event", zap.String("event", msg.Event))
	}
}

// =============================================================================
// 🎙️ recognition.Recognizer
// =============================================================================

// Name 后端名称
func (h *Hub) Name() string { return "remote" }

// Available 编辑器可随时接入，始终视为可用。
func (h *Hub) Available() bool { return true }

// Start 请求编辑器开始一次识别，结果经 recognition.event 回传。
func (h *Hub) Start(ctx context.Context, opts recognition.Options, handler recognition.Handler) error {
	h.mu.Lock()
	ec := h.conn
	if ec == nil {
		h.mu.Unlock()
		return ErrNoEditor
	}
	if !h.speechSupported {
		h.mu.Unlock()
		return recognition.ErrUnsupported
	}
	id := uuid.NewString()
	h.attempts[id] = handler
	h.mu.Unlock()

	err := ec.send(ctx, StartMessage{
		Type:           TypeRecognitionStart,
		Attempt:        id,
		Lang:           opts.Language,
		Continuous:     opts.Continuous,
		InterimResults: opts.InterimResults,
	})
	if err != nil {
		h.mu.Lock()
		delete(h.attempts, id)
		h.mu.Unlock()
		return err
	}
	return nil
}

// =============================================================================
// 🎨 canvas.Actuator
// =============================================================================

func (h *Hub) sendOp(ctx context.Context, msg OpMessage) error {
	h.mu.Lock()
	ec := h.conn
	h.mu.Unlock()
	if ec == nil {
		return ErrNoEditor
	}
	msg.Type = TypeCanvasOp
	return ec.send(ctx, msg)
}

// AddText 添加文本
func (h *Hub) AddText(ctx context.Context, content string) error {
	return h.sendOp(ctx, OpMessage{Op: OpAddText, Text: content})
}

// AddShape 添加图形
func (h *Hub) AddShape(ctx context.Context, kind canvas.ShapeKind) error {
	return h.sendOp(ctx, OpMessage{Op: OpAddShape, Shape: kind})
}

// DeleteActiveSelection 删除编辑器当前选中对象，并清空本地缓存的选择。
func (h *Hub) DeleteActiveSelection(ctx context.Context) error {
	if err := h.sendOp(ctx, OpMessage{Op: OpDeleteActive}); err != nil {
		return err
	}
	h.mu.Lock()
	h.selection = nil
	h.mu.Unlock()
	return nil
}

// SetActiveColor 设置选中对象颜色
func (h *Hub) SetActiveColor(ctx context.Context, color canvas.ColorName) error {
	return h.sendOp(ctx, OpMessage{Op: OpSetColor, Color: color})
}

// ActiveSelection 返回编辑器最近上报的选择
func (h *Hub) ActiveSelection(_ context.Context) (canvas.Selection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil || h.selection == nil {
		return canvas.Selection{}, false
	}
	return *h.selection, true
}

// CenterObject 居中对象
func (h *Hub) CenterObject(ctx context.Context, sel canvas.Selection) error {
	return h.sendOp(ctx, OpMessage{Op: OpCenter, ID: sel.ID})
}

// RequestRender 请求重绘
func (h *Hub) RequestRender(ctx context.Context) error {
	return h.sendOp(ctx, OpMessage{Op: OpRender})
}

// =============================================================================
// 📣 状态推送
// =============================================================================

// Broadcast 推送状态。发送队列已满时丢弃，不阻塞调用方。
func (h *Hub) Broadcast(status any) {
	h.mu.Lock()
	ec := h.conn
	h.mu.Unlock()
	if ec == nil {
		return
	}
	if !ec.trySend(StatusMessage{Type: TypeStatus, Status: status}) {
		h.logger.Debug("status push dropped")
	}
}

// Close 断开当前编辑器
func (h *Hub) Close() {
	h.mu.Lock()
	ec := h.conn
	h.mu.Unlock()
	if ec != nil {
		ec.close(websocket.StatusGoingAway, "server shutting down")
	}
}

// =============================================================================
// 🔌 单连接
// =============================================================================

type editorConn struct {
	ws   *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newEditorConn(ws *websocket.Conn, size int) *editorConn {
	return &editorConn{
		ws:   ws,
		out:  make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (c *editorConn) send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal editor message: %w", err)
	}
	select {
	case c.out <- data:
		return nil
	case <-c.done:
		return ErrNoEditor
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *editorConn) trySend(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

func (c *editorConn) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close(code, reason)
	})
}
