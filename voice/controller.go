package voice

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/voicecanvas/canvas"
	"github.com/BaSui01/voicecanvas/command"
	"github.com/BaSui01/voicecanvas/dispatch"
	"github.com/BaSui01/voicecanvas/internal/ctxkeys"
	"github.com/BaSui01/voicecanvas/recognition"
)

const instrumentationName = "github.com/BaSui01/voicecanvas/voice"

// =============================================================================
// 🎛️ 语音控制器
// =============================================================================

// Status 控制器可观察状态
type Status struct {
	IsListening    bool   `json:"is_listening"`
	LastTranscript string `json:"last_transcript"`
	IsSupported    bool   `json:"is_supported"`
}

// MetricsRecorder 控制器使用的指标接口，*metrics.Collector 满足该接口。
type MetricsRecorder interface {
	dispatch.Recorder
	RecordRecognitionAttempt(backend, outcome string)
	RecordRecognitionTransition(fromState, toState string)
	RecordCommandParsed(kind, rule string)
}

// Controller 语音指令控制器
type Controller struct {
	session    *recognition.Session
	parser     *command.Parser
	dispatcher *dispatch.Dispatcher
	metrics    MetricsRecorder
	tracer     trace.Tracer
	logger     *zap.Logger
	backend    string

	// OTel 指标
	txTotal    metric.Int64Counter
	txDuration metric.Float64Histogram

	mu     sync.RWMutex
	status Status

	subMu   sync.Mutex
	subs    map[int]func(Status)
	nextSub int
}

type options struct {
	logger    *zap.Logger
	metrics   MetricsRecorder
	parser    *command.Parser
	tracer    trace.Tracer
	meter     metric.Meter
	supported *bool
}

// Option 配置 Controller
type Option func(*options)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics 设置指标记录器
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithParser 替换默认解析器
func WithParser(p *command.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithTracer 替换全局 TracerProvider 提供的 tracer
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter 替换全局 MeterProvider 提供的 meter
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithSupported 覆盖进程级识别能力标记
func WithSupported(supported bool) Option {
	return func(o *options) { o.supported = &supported }
}

// NewController 创建控制器
func NewController(rec recognition.Recognizer, actuator canvas.Actuator, opts ...Option) *Controller {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.parser == nil {
		o.parser = command.NewParser()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}

	c := &Controller{
		parser:  o.parser,
		metrics: o.metrics,
		tracer:  o.tracer,
		logger:  o.logger.With(zap.String("component", "voice_controller")),
		backend: "none",
		subs:    make(map[int]func(Status)),
	}
	if rec != nil {
		c.backend = rec.Name()
	}
	c.initInstruments(o.meter)

	var recorder dispatch.Recorder
	if o.metrics != nil {
		recorder = o.metrics
	}
	c.dispatcher = dispatch.NewDispatcher(actuator, recorder, o.logger)

	sessionOpts := []recognition.SessionOption{
		recognition.WithLogger(o.logger),
		recognition.WithUtteranceSink(c.handleUtterance),
		recognition.WithTransitionHook(c.onTransition),
		recognition.WithOutcomeHook(c.onOutcome),
	}
	if o.supported != nil {
		sessionOpts = append(sessionOpts, recognition.WithSupported(*o.supported))
	}
	c.session = recognition.NewSession(rec, sessionOpts...)
	c.status.IsSupported = c.session.IsSupported()
	return c
}

// initInstruments 创建事务指标，失败时退回 noop 实现。
func (c *Controller) initInstruments(meter metric.Meter) {
	var err error
	c.txTotal, err = meter.Int64Counter("voice.transaction.total",
		metric.WithDescription("Total number of voice command transactions"),
		metric.WithUnit("{transaction}"))
	if err != nil {
		c.logger.Warn("create transaction counter failed", zap.Error(err))
		c.txTotal, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("voice.transaction.total")
	}

	c.txDuration, err = meter.Float64Histogram("voice.transaction.duration",
		metric.WithDescription("Parse and dispatch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1))
	if err != nil {
		c.logger.Warn("create transaction histogram failed", zap.Error(err))
		c.txDuration, _ = noop.NewMeterProvider().Meter(instrumentationName).Float64Histogram("voice.transaction.duration")
	}
}

// StartListening 开始一次识别。会话忙或不支持识别时为空操作。
// 识别与分发不随 ctx 取消而中止，ctx 只传递追踪与值。
func (c *Controller) StartListening(ctx context.Context) {
	c.session.Start(context.WithoutCancel(ctx))
}

// Status 返回当前状态快照
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// State 返回识别会话状态
func (c *Controller) State() recognition.State {
	return c.session.State()
}

// Subscribe 注册状态变化回调，返回取消函数。
func (c *Controller) Subscribe(fn func(Status)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) publish(st Status) {
	c.subMu.Lock()
	fns := make([]func(Status), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// onTransition 在会话锁内调用。
func (c *Controller) onTransition(from, to recognition.State) {
	if c.metrics != nil {
		c.metrics.RecordRecognitionTransition(string(from), string(to))
	}

	listening := to == recognition.StateListening
	c.mu.Lock()
	changed := c.status.IsListening != listening
	c.status.IsListening = listening
	st := c.status
	c.mu.Unlock()

	if changed {
		c.publish(st)
	}
}

func (c *Controller) onOutcome(attemptID string, outcome recognition.Outcome) {
	if c.metrics != nil {
		c.metrics.RecordRecognitionAttempt(c.backend, string(outcome))
	}
	if outcome == recognition.OutcomeFailed {
		c.logger.Info("recognition attempt failed", zap.String("attempt", attemptID))
	}
}

// handleUtterance 执行一次事务：更新转写、解析、分发。
func (c *Controller) handleUtterance(ctx context.Context, u recognition.Utterance) {
	ctx, span := c.tracer.Start(ctx, "voice.transaction",
		trace.WithAttributes(
			attribute.String("voice.attempt", u.AttemptID()),
			attribute.String("voice.backend", c.backend),
		))
	defer span.End()

	c.mu.Lock()
	c.status.LastTranscript = u.Text()
	st := c.status
	c.mu.Unlock()
	c.publish(st)

	start := time.Now()
	cmd, rule := c.parser.Match(u.Text())
	if c.metrics != nil {
		c.metrics.RecordCommandParsed(string(cmd.Kind()), rule)
	}

	outcome := c.dispatcher.Dispatch(ctx, cmd)
	attrs := []attribute.KeyValue{
		attribute.String("voice.command.kind", string(cmd.Kind())),
		attribute.String("voice.dispatch.outcome", string(outcome)),
	}
	span.SetAttributes(attrs...)
	elapsed := time.Since(start)
	c.txTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	c.txDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

	fields := []zap.Field{
		zap.String("attempt", u.AttemptID()),
		zap.String("transcript", u.Text()),
		zap.String("kind", string(cmd.Kind())),
		zap.String("rule", rule),
		zap.String("outcome", string(outcome)),
		zap.Duration("duration", elapsed),
	}
	// 由 HTTP 触发的事务携带请求 ID
	if id, ok := ctxkeys.RequestID(ctx); ok {
		fields = append(fields, zap.String("request_id", id))
	}
	c.logger.Info("voice command handled", fields...)
}
