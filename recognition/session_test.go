package recognition

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Inline mocks (function callback pattern) ---

type mockRecognizer struct {
	startFn func(ctx context.Context, opts Options, h Handler) error

	mu       sync.Mutex
	handlers []Handler
	opts     []Options
}

func (m *mockRecognizer) Start(ctx context.Context, opts Options, h Handler) error {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()
	if m.startFn != nil {
		return m.startFn(ctx, opts, h)
	}
	return nil
}

func (m *mockRecognizer) Name() string { return "mock" }

func (m *mockRecognizer) last() Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers[len(m.handlers)-1]
}

func (m *mockRecognizer) starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

type recorder struct {
	mu          sync.Mutex
	utterances  []Utterance
	transitions [][2]State
	outcomes    []Outcome
}

func (r *recorder) options() []SessionOption {
	return []SessionOption{
		WithSupported(true),
		WithLogger(zap.NewNop()),
		WithUtteranceSink(func(_ context.Context, u Utterance) {
			r.mu.Lock()
			r.utterances = append(r.utterances, u)
			r.mu.Unlock()
		}),
		WithTransitionHook(func(from, to State) {
			r.mu.Lock()
			r.transitions = append(r.transitions, [2]State{from, to})
			r.mu.Unlock()
		}),
		WithOutcomeHook(func(_ string, o Outcome) {
			r.mu.Lock()
			r.outcomes = append(r.outcomes, o)
			r.mu.Unlock()
		}),
	}
}

func newTestSession(rec Recognizer) (*Session, *recorder) {
	r := &recorder{}
	return NewSession(rec, r.options()...), r
}

// --- 状态表 ---

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateListening))
	assert.True(t, CanTransition(StateListening, StateCompleted))
	assert.True(t, CanTransition(StateListening, StateIdle))
	assert.True(t, CanTransition(StateFailed, StateIdle))

	assert.False(t, CanTransition(StateIdle, StateCompleted))
	assert.False(t, CanTransition(StateIdle, StateFailed))
	assert.False(t, CanTransition(StateListening, StateListening))
	assert.False(t, CanTransition(StateFailed, StateListening))
}

// --- Session ---

func TestSession_UnsupportedIsNoop(t *testing.T) {
	rec := &mockRecognizer{}
	r := &recorder{}
	s := NewSession(rec, append(r.options(), WithSupported(false))...)

	s.Start(context.Background())

	assert.False(t, s.IsSupported())
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, rec.starts())
	assert.Equal(t, []Outcome{OutcomeUnsupported}, r.outcomes)
}

func TestSession_NilRecognizerIsNoop(t *testing.T) {
	s, r := newTestSession(nil)
	s.Start(context.Background())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, []Outcome{OutcomeUnsupported}, r.outcomes)
}

func TestSession_StartConfiguresSingleShot(t *testing.T) {
	rec := &mockRecognizer{}
	s, _ := newTestSession(rec)

	s.Start(context.Background())

	assert.Equal(t, StateListening, s.State())
	require.Len(t, rec.opts, 1)
	assert.Equal(t, "en-US", rec.opts[0].Language)
	assert.False(t, rec.opts[0].Continuous)
	assert.False(t, rec.opts[0].InterimResults)
}

func TestSession_SecondStartWhileListeningIsIgnored(t *testing.T) {
	rec := &mockRecognizer{}
	s, r := newTestSession(rec)

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Equal(t, 1, rec.starts())
	assert.Equal(t, StateListening, s.State())
	assert.Equal(t, []Outcome{OutcomeIgnored}, r.outcomes)
	assert.Equal(t, [][2]State{{StateIdle, StateListening}}, r.transitions)
}

func TestSession_ResultProducesOneLowercasedUtterance(t *testing.T) {
	rec := &mockRecognizer{}
	s, r := newTestSession(rec)

	s.Start(context.Background())
	h := rec.last()
	h.OnStart()
	h.OnResult("Add Circle")
	assert.Equal(t, StateCompleted, s.State())

	// 第二个结果被丢弃
	h.OnResult("delete")
	h.OnEnd()

	assert.Equal(t, StateIdle, s.State())
	require.Len(t, r.utterances, 1)
	assert.Equal(t, "add circle", r.utterances[0].Text())
	assert.NotEmpty(t, r.utterances[0].AttemptID())
	assert.False(t, r.utterances[0].CapturedAt().IsZero())
	assert.Equal(t, []Outcome{OutcomeCompleted}, r.outcomes)
	assert.Equal(t, [][2]State{
		{StateIdle, StateListening},
		{StateListening, StateCompleted},
		{StateCompleted, StateIdle},
	}, r.transitions)
}

func TestSession_EndWithoutResult(t *testing.T) {
	rec := &mockRecognizer{}
	s, r := newTestSession(rec)

	s.Start(context.Background())
	rec.last().OnEnd()

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, r.utterances)
	assert.Equal(t, []Outcome{OutcomeNoResult}, r.outcomes)
}

func TestSession_ErrorReturnsToIdle(t *testing.T) {
	rec := &mockRecognizer{}
	s, r := newTestSession(rec)

	s.Start(context.Background())
	h := rec.last()
	h.OnError(errors.New("no-speech"))
	// 出错之后的回调属于已结束的尝试
	h.OnResult("add text")
	h.OnEnd()

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, r.utterances)
	assert.Equal(t, []Outcome{OutcomeFailed}, r.outcomes)
	assert.Equal(t, [][2]State{
		{StateIdle, StateListening},
		{StateListening, StateFailed},
		{StateFailed, StateIdle},
	}, r.transitions)

	// 调用方可以重新开始
	s.Start(context.Background())
	assert.Equal(t, StateListening, s.State())
}

func TestSession_StartErrorIsRecognitionFailure(t *testing.T) {
	rec := &mockRecognizer{startFn: func(context.Context, Options, Handler) error {
		return errors.New("microphone busy")
	}}
	s, r := newTestSession(rec)

	s.Start(context.Background())

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, []Outcome{OutcomeFailed}, r.outcomes)
}

func TestSession_StaleHandlerIgnored(t *testing.T) {
	rec := &mockRecognizer{}
	s, r := newTestSession(rec)

	s.Start(context.Background())
	first := rec.last()
	first.OnError(errors.New("aborted"))

	s.Start(context.Background())
	second := rec.last()

	first.OnResult("delete")
	first.OnEnd()
	assert.Equal(t, StateListening, s.State())

	second.OnResult("center")
	second.OnEnd()

	require.Len(t, r.utterances, 1)
	assert.Equal(t, "center", r.utterances[0].Text())
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_SynchronousBackend(t *testing.T) {
	rec := &mockRecognizer{startFn: func(_ context.Context, _ Options, h Handler) error {
		h.OnStart()
		h.OnResult("ADD TEXT")
		h.OnEnd()
		return nil
	}}
	s, r := newTestSession(rec)

	s.Start(context.Background())

	assert.Equal(t, StateIdle, s.State())
	require.Len(t, r.utterances, 1)
	assert.Equal(t, "add text", r.utterances[0].Text())
}

// --- 能力探测 ---

func TestCapability_DetectsOnce(t *testing.T) {
	var c capability
	calls := 0

	assert.True(t, c.detect(func() bool { calls++; return true }))
	assert.True(t, c.detect(func() bool { calls++; return false }))
	assert.Equal(t, 1, calls)
}

func TestCapability_NilProbe(t *testing.T) {
	var c capability
	assert.False(t, c.detect(nil))
}

func TestProbeFor(t *testing.T) {
	assert.False(t, ProbeFor(nil)())
	assert.True(t, ProbeFor(&mockRecognizer{})())
	assert.True(t, ProbeFor(NewLineRecognizer(nil))())
	assert.False(t, ProbeFor(NewTranscribingRecognizer(nil, nil, nil))())
}
