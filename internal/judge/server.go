package judge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// ExecutePath is the judge execute endpoint.
const ExecutePath = "/api/v1/judge/execute"

type server struct {
	gw      Gateway
	secret  []byte
	timeout time.Duration
	logger  *log.Logger
}

// ServerOption configures the judge HTTP server.
type ServerOption func(*server)

// WithSecret requires HS256 bearer tokens signed with secret.
func WithSecret(secret string) ServerOption {
	return func(s *server) {
		s.secret = []byte(secret)
	}
}

// WithRequestTimeout bounds handler time.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithServerLogger sets the request logger.
func WithServerLogger(l *log.Logger) ServerOption {
	return func(s *server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer exposes gw over the judge wire format:
//
//	GET  /health
//	POST /api/v1/judge/execute
func NewServer(gw Gateway, opts ...ServerOption) http.Handler {
	s := &server{
		gw:      gw,
		timeout: 10 * time.Second,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.timeout))
	r.Use(jsonContentType)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	exec := r.With()
	if len(s.secret) > 0 {
		exec = r.With(s.requireAuth)
	}
	exec.Post(ExecutePath, s.handleExecute)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
	return r
}

func (s *server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxResponseBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Language != "" && !strings.EqualFold(req.Language, "java") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported language %q", req.Language))
		return
	}

	out := s.gw.Submit(r.Context(), Submission{
		Source:        req.Code,
		LevelID:       req.LevelID,
		Language:      req.Language,
		TimeLimit:     time.Duration(req.TimeLimit) * time.Millisecond,
		MemoryLimitMB: req.MemoryLimit,
	})
	if out.Kind == KindTransportError {
		writeError(w, http.StatusServiceUnavailable, out.Message)
		return
	}

	s.logger.Info("executed", "request", chimw.GetReqID(r.Context()), "level", req.LevelID, "outcome", out.Kind)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ResponseFor(out))
}

// requireAuth enforces a valid HS256 bearer token.
func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearer(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		token, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Message: msg, StatusCode: status})
}
