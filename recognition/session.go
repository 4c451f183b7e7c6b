package recognition

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// 🎙️ 识别会话
// =============================================================================

// TransitionHook 状态迁移回调，在会话锁内同步调用，不得回调 Session。
type TransitionHook func(from, to State)

// OutcomeHook 尝试结束回调
type OutcomeHook func(attemptID string, outcome Outcome)

// Session 管理识别尝试，同一时刻至多一个尝试处于活动状态。
type Session struct {
	rec       Recognizer
	opts      Options
	supported bool
	logger    *zap.Logger

	sink         func(context.Context, Utterance)
	onTransition []TransitionHook
	onOutcome    []OutcomeHook

	mu      sync.Mutex
	state   State
	attempt string
}

// SessionOption 配置 Session
type SessionOption func(*Session)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSupported 覆盖进程级能力标记。
func WithSupported(supported bool) SessionOption {
	return func(s *Session) { s.supported = supported }
}

// WithUtteranceSink 设置 Utterance 接收者，每次成功识别调用一次。
// ctx 为启动该次尝试时传入的上下文。
func WithUtteranceSink(sink func(context.Context, Utterance)) SessionOption {
	return func(s *Session) { s.sink = sink }
}

// WithTransitionHook 追加状态迁移回调
func WithTransitionHook(hook TransitionHook) SessionOption {
	return func(s *Session) { s.onTransition = append(s.onTransition, hook) }
}

// WithOutcomeHook 追加尝试结束回调
func WithOutcomeHook(hook OutcomeHook) SessionOption {
	return func(s *Session) { s.onOutcome = append(s.onOutcome, hook) }
}

// NewSession 创建识别会话
func NewSession(rec Recognizer, opts ...SessionOption) *Session {
	s := &Session{
		rec:       rec,
		opts:      DefaultOptions(),
		supported: Supported(),
		logger:    zap.NewNop(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	backend := "none"
	if rec != nil {
		backend = rec.Name()
	}
	s.logger = s.logger.With(zap.String("component", "recognition_session"), zap.String("backend", backend))
	return s
}

// IsSupported 返回会话采用的能力标记
func (s *Session) IsSupported() bool {
	return s.supported
}

// State 返回当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start 开始一次识别尝试。
// 不支持识别或当前不处于 Idle 时为空操作。
func (s *Session) Start(ctx context.Context) {
	if !s.supported || s.rec == nil {
		s.logger.Debug("speech recognition unsupported, start ignored")
		s.emitOutcome("", OutcomeUnsupported)
		return
	}

	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		s.logger.Debug("session busy, start ignored", zap.String("state", string(state)))
		s.emitOutcome("", OutcomeIgnored)
		return
	}
	id := uuid.NewString()
	s.attempt = id
	s.transitionLocked(StateListening)
	s.mu.Unlock()

	s.logger.Debug("recognition attempt started", zap.String("attempt", id))

	h := &attemptHandler{session: s, id: id, ctx: ctx}
	if err := s.rec.Start(ctx, s.opts, h); err != nil {
		h.OnError(fmt.Errorf("start %s recognizer: %w", s.rec.Name(), err))
	}
}

func (s *Session) transitionLocked(to State) bool {
	from := s.state
	if !CanTransition(from, to) {
		s.logger.Warn("illegal recognition transition rejected",
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		return false
	}
	s.state = to
	for _, hook := range s.onTransition {
		hook(from, to)
	}
	return true
}

func (s *Session) emitOutcome(id string, outcome Outcome) {
	for _, hook := range s.onOutcome {
		hook(id, outcome)
	}
}

// currentLocked 判断回调是否属于当前尝试。
func (s *Session) currentLocked(id string) bool {
	return s.attempt != "" && s.attempt == id
}

// attemptHandler 把后端回调绑定到单次尝试。
type attemptHandler struct {
	session *Session
	id      string
	ctx     context.Context
}

func (h *attemptHandler) OnStart() {
	s := h.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(h.id) {
		return
	}
	s.logger.Debug("recognizer listening", zap.String("attempt", h.id))
}

func (h *attemptHandler) OnResult(transcript string) {
	s := h.session
	s.mu.Lock()
	if !s.currentLocked(h.id) || s.state != StateListening {
		s.mu.Unlock()
		s.logger.Debug("result dropped", zap.String("attempt", h.id))
		return
	}
	s.transitionLocked(StateCompleted)
	sink := s.sink
	s.mu.Unlock()

	u := NewUtterance(transcript, h.id)
	s.logger.Info("utterance captured", zap.String("attempt", h.id), zap.String("text", u.Text()))
	if sink != nil {
		sink(h.ctx, u)
	}
}

func (h *attemptHandler) OnError(err error) {
	s := h.session
	s.mu.Lock()
	if !s.currentLocked(h.id) {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(StateFailed)
	s.transitionLocked(StateIdle)
	s.attempt = ""
	s.mu.Unlock()

	s.logger.Warn("recognition failed", zap.String("attempt", h.id), zap.Error(err))
	s.emitOutcome(h.id, OutcomeFailed)
}

func (h *attemptHandler) OnEnd() {
	s := h.session
	s.mu.Lock()
	if !s.currentLocked(h.id) {
		s.mu.Unlock()
		return
	}
	outcome := OutcomeNoResult
	if s.state == StateCompleted {
		outcome = OutcomeCompleted
	}
	s.transitionLocked(StateIdle)
	s.attempt = ""
	s.mu.Unlock()

	s.logger.Debug("recognition attempt ended", zap.String("attempt", h.id), zap.String("outcome", string(outcome)))
	s.emitOutcome(h.id, outcome)
}
