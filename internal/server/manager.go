package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/BaSui01/voicecanvas/config"
)

var (
	// ErrAlreadyStarted 重复调用 Start
	ErrAlreadyStarted = errors.New("server already started")
	// ErrClosed 关闭后不能再启动
	ErrClosed = errors.New("server closed")
)

// Config 服务器配置
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // 编辑器 WebSocket 劫持连接后自行清除截止时间
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
	MaxConnections  int // 0 表示不限制
}

// DefaultConfig 返回默认服务器配置
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
	}
}

// FromServerConfig 由应用配置构造服务器配置，零值字段沿用默认值
func FromServerConfig(sc config.ServerConfig) Config {
	cfg := DefaultConfig()
	if sc.HTTPPort > 0 {
		cfg.Addr = net.JoinHostPort("", strconv.Itoa(sc.HTTPPort))
	}
	for _, o := range []struct {
		dst *time.Duration
		src time.Duration
	}{
		{&cfg.ReadTimeout, sc.ReadTimeout},
		{&cfg.WriteTimeout, sc.WriteTimeout},
		{&cfg.ShutdownTimeout, sc.ShutdownTimeout},
	} {
		if o.src > 0 {
			*o.dst = o.src
		}
	}
	cfg.MaxConnections = sc.MaxConnections
	return cfg
}

// =============================================================================
// 🌐 Manager
// =============================================================================

type lifecycle int

const (
	stateIdle lifecycle = iota
	stateServing
	stateClosed
)

// Manager 管理一个 http.Server 的启动、等待与优雅关闭
type Manager struct {
	srv    *http.Server
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	state lifecycle
	ln    net.Listener

	// exited 在 Serve 返回后关闭，serveErr 为非正常退出的错误
	exited   chan struct{}
	serveErr error
}

// NewManager 创建服务器管理器
func NewManager(handler http.Handler, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		srv: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		cfg:    cfg,
		logger: logger.With(zap.String("component", "http_server")),
		exited: make(chan struct{}),
	}
}

// Start 监听并在后台提供服务
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateServing:
		return ErrAlreadyStarted
	case stateClosed:
		return ErrClosed
	}

	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.cfg.Addr, err)
	}
	if m.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, m.cfg.MaxConnections)
	}
	m.ln = ln
	m.state = stateServing

	m.logger.Info("http server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("max_connections", m.cfg.MaxConnections))

	go func() {
		defer close(m.exited)
		if err := m.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("http server exited", zap.Error(err))
			m.serveErr = err
		}
	}()
	return nil
}

// OnShutdown 注册关闭钩子，Shutdown 开始时在独立 goroutine 中调用
func (m *Manager) OnShutdown(fn func()) {
	m.srv.RegisterOnShutdown(fn)
}

// Shutdown 在 ShutdownTimeout 内优雅关闭，可重复调用
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateClosed {
		return nil
	}
	wasServing := m.state == stateServing
	m.state = stateClosed
	m.ln = nil
	if !wasServing {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
	defer cancel()

	m.logger.Info("http server shutting down")
	if err := m.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Wait 阻塞到 ctx 结束或服务异常退出，随后优雅关闭。
// 正常停机返回 nil。
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		m.logger.Info("stop requested", zap.Error(context.Cause(ctx)))
	case <-m.exited:
	}

	err := m.Shutdown(context.WithoutCancel(ctx))
	select {
	case <-m.exited:
		if m.serveErr != nil {
			return m.serveErr
		}
	default:
	}
	return err
}

// ListenAddr 返回实际监听地址，未在服务时为空
func (m *Manager) ListenAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}

// IsRunning 是否正在提供服务
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateServing
}
