package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/voicecanvas/command"
	"github.com/BaSui01/voicecanvas/config"
	"github.com/BaSui01/voicecanvas/internal/metrics"
	"github.com/BaSui01/voicecanvas/internal/server"
	"github.com/BaSui01/voicecanvas/recognition"
	"github.com/BaSui01/voicecanvas/remote"
	"github.com/BaSui01/voicecanvas/voice"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server voicecanvas HTTP 服务
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	collector  *metrics.Collector
	hub        *remote.Hub
	controller *voice.Controller

	httpManager       *server.Manager
	rateLimiterCancel context.CancelFunc
	unsubscribe       func()
}

// NewServer 组装服务。识别后端由 cfg.Voice.Backend 决定，画布操作始终转发给编辑器。
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		collector: metrics.NewCollector(cfg.Metrics.Namespace, logger),
	}

	s.hub = remote.NewHub(
		remote.WithLogger(logger),
		remote.WithOriginPatterns(originPatterns(cfg.Server.CORSAllowedOrigins)...),
		remote.WithConnectionHook(s.onEditorConnection),
	)

	rec, err := s.recognizer()
	if err != nil {
		return nil, err
	}
	supported := recognition.DetectSupport(recognition.ProbeFor(rec))
	logger.Info("speech recognition capability",
		zap.String("backend", rec.Name()),
		zap.Bool("supported", supported))

	s.controller = voice.NewController(rec, s.hub,
		voice.WithLogger(logger),
		voice.WithMetrics(s.collector),
		voice.WithParser(command.NewParser(command.WithPlaceholder(cfg.Voice.Placeholder))),
	)
	s.unsubscribe = s.controller.Subscribe(func(st voice.Status) {
		s.hub.Broadcast(st)
	})
	return s, nil
}

func (s *Server) recognizer() (recognition.Recognizer, error) {
	switch s.cfg.Voice.Backend {
	case config.BackendRemote, "":
		return s.hub, nil
	case config.BackendDeepgram:
		return newDeepgramRecognizer(s.cfg, "", s.logger), nil
	default:
		return nil, fmt.Errorf("voice backend %q is not available in serve mode", s.cfg.Voice.Backend)
	}
}

// onEditorConnection 更新连接指标，并向新接入的编辑器推送当前状态。
func (s *Server) onEditorConnection(connected int) {
	s.collector.SetEditorsConnected(connected)
	if connected > 0 && s.controller != nil {
		s.hub.Broadcast(s.controller.Status())
	}
}

// originPatterns 把 CORS 来源转换为 WebSocket Origin 模式（host 部分）。
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		patterns = append(patterns, o)
	}
	return patterns
}

// =============================================================================
// 🌐 路由
// =============================================================================

// Handler 构建带中间件的 HTTP 处理器
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/voice/listen", s.handleListen)
	mux.HandleFunc("GET /v1/voice/status", s.handleStatus)
	mux.Handle("GET /v1/editor/ws", s.hub)

	skipAuthPaths := []string{"/health", "/version", "/metrics"}
	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
		JWTAuth(s.cfg.Server.JWT, skipAuthPaths, s.logger),
	)
}

// statusResponse 状态查询响应
type statusResponse struct {
	voice.Status
	State          recognition.State `json:"state"`
	EditorAttached bool              `json:"editor_attached"`
}

func (s *Server) currentStatus() statusResponse {
	return statusResponse{
		Status:         s.controller.Status(),
		State:          s.controller.State(),
		EditorAttached: s.hub.Attached(),
	}
}

// handleListen 触发一次识别。会话忙时同样返回 202，状态反映实际情况。
func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	s.controller.StartListening(r.Context())
	writeJSON(w, http.StatusAccepted, s.currentStatus())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentStatus())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"editor_attached": s.hub.Attached(),
		"timestamp":       time.Now().UTC(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// =============================================================================
// 🚀 生命周期
// =============================================================================

// Start 启动 HTTP 服务（非阻塞）
func (s *Server) Start() error {
	limiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	s.httpManager = server.NewManager(s.Handler(limiterCtx), server.FromServerConfig(s.cfg.Server), s.logger)
	s.httpManager.OnShutdown(s.hub.Close)

	if err := s.httpManager.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("voicecanvas server started",
		zap.String("addr", s.httpManager.ListenAddr()),
		zap.String("backend", s.cfg.Voice.Backend))
	return nil
}

// Wait 阻塞到 ctx 结束或服务异常，然后释放资源
func (s *Server) Wait(ctx context.Context) error {
	err := s.httpManager.Wait(ctx)
	s.Shutdown()
	return err
}

// Shutdown 停止 HTTP 服务并释放后台资源，可重复调用
func (s *Server) Shutdown() {
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(context.Background()); err != nil {
			s.logger.Warn("http shutdown failed", zap.Error(err))
		}
	}
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.hub.Close()
	s.logger.Info("graceful shutdown completed")
}
