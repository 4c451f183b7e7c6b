package main

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/BaSui01/voicecanvas/config"
	"github.com/BaSui01/voicecanvas/internal/ctxkeys"
)

// =============================================================================
// 🔑 JWTAuth
// =============================================================================

var errMissingToken = errors.New("missing bearer token")

// SubjectFromContext 返回 JWTAuth 注入的 sub 声明
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctxkeys.Subject(ctx)
	return sub
}

// parseRSAPublicKey 解析 PEM 编码的 PKIX RSA 公钥
func parseRSAPublicKey(pemKey string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("no PEM block in public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not RSA", pub)
	}
	return key, nil
}

// jwtVerifier 按 alg 选择验签密钥：HS256 用共享密钥，RS256 用公钥
type jwtVerifier struct {
	secret []byte
	rsaKey *rsa.PublicKey
	parser *jwt.Parser
}

func newJWTVerifier(cfg config.JWTConfig) (*jwtVerifier, error) {
	v := &jwtVerifier{secret: []byte(cfg.Secret)}

	var err error
	if cfg.PublicKey != "" {
		v.rsaKey, err = parseRSAPublicKey(cfg.PublicKey)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "RS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)
	return v, err
}

func (v *jwtVerifier) key(token *jwt.Token) (any, error) {
	switch alg := token.Method.Alg(); alg {
	case "HS256":
		if len(v.secret) == 0 {
			return nil, errors.New("HS256 secret not configured")
		}
		return v.secret, nil
	case "RS256":
		if v.rsaKey == nil {
			return nil, errors.New("RS256 public key not configured")
		}
		return v.rsaKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method %s", alg)
	}
}

// verify 校验令牌并返回 sub，未携带 sub 时为空串
func (v *jwtVerifier) verify(raw string) (string, error) {
	if raw == "" {
		return "", errMissingToken
	}
	token, err := v.parser.Parse(raw, v.key)
	if err != nil {
		return "", err
	}
	sub, _ := token.Claims.GetSubject()
	return sub, nil
}

// bearerToken 读取 Authorization: Bearer，浏览器 WebSocket 退回 access_token 查询参数
func bearerToken(r *http.Request) string {
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return r.URL.Query().Get("access_token")
}

// JWTAuth 校验 Bearer 令牌（HS256 / RS256），cfg 未配置密钥时不启用。
// 校验通过后 sub 写入 context。
func JWTAuth(cfg config.JWTConfig, skipPaths []string, logger *zap.Logger) Middleware {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	verifier, err := newJWTVerifier(cfg)
	if err != nil {
		logger.Warn("RS256 verification disabled", zap.Error(err))
	}
	skip := newPathSet(skipPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip.has(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			sub, err := verifier.verify(bearerToken(r))
			if errors.Is(err, errMissingToken) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			if err != nil {
				logger.Debug("jwt rejected", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			ctx := r.Context()
			if sub != "" {
				ctx = ctxkeys.WithSubject(ctx, sub)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
