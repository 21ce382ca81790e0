package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"potlottery/core"
	"potlottery/core/events"
	"potlottery/native/lottery"
	"potlottery/native/token"
	"potlottery/observability"
	telemetry "potlottery/observability/otel"
	"potlottery/services/history"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeForbidden      = -32003
	codeNotFound       = -32004
	codeConflict       = -32009
	codeRateLimited    = -32020
	codeDrawCooldown   = -32030
	codeEmptyRound     = -32031
	codeLedger         = -32040
)

// DrawHistory serves settled draws for lottery_listDraws.
type DrawHistory interface {
	ListDraws(ctx context.Context, limit int) ([]history.Draw, error)
}

// Deps bundles the components the server dispatches to.
type Deps struct {
	Executor *core.Executor
	Lottery  *lottery.Engine
	Token    *token.Engine
	Bus      *events.Bus
	History  DrawHistory
	Logger   *slog.Logger
}

// ServerConfig tunes authentication, throttling and HTTP timeouts.
type ServerConfig struct {
	Auth              AuthConfig
	RateLimit         RateLimitConfig
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type Server struct {
	deps    Deps
	cfg     ServerConfig
	auth    *Authenticator
	limiter *RateLimiter
	logger  *slog.Logger
	methods map[string]method
	http    *http.Server
}

// NewServer validates the dependencies and builds the method table.
func NewServer(deps Deps, cfg ServerConfig) (*Server, error) {
	if deps.Executor == nil || deps.Lottery == nil || deps.Token == nil {
		return nil, errors.New("rpc: executor, lottery and token engines are required")
	}
	auth, err := NewAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		deps:    deps,
		cfg:     cfg,
		auth:    auth,
		limiter: NewRateLimiter(cfg.RateLimit),
		logger:  logger.With("component", "rpc"),
	}
	s.methods = s.methodTable()
	return s, nil
}

// Handler returns the HTTP surface: JSON-RPC on POST /, health, metrics and
// the websocket event stream.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Post("/", s.handle)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws/events", s.handleEventsWS)
	return otelhttp.NewHandler(router, "lottery-rpc")
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rpc shutdown: %w", err)
		}
		return nil
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	status  int
}

func (e *RPCError) Error() string { return e.Message }

func newError(status, code int, message string, data interface{}) *RPCError {
	return &RPCError{Code: code, Message: message, Data: data, status: status}
}

func invalidParams(message string) *RPCError {
	return newError(http.StatusBadRequest, codeInvalidParams, message, reasonData{Reason: "invalid_argument"})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	started := time.Now()
	label := req.Method
	if _, known := s.methods[label]; !known {
		label = "unknown"
	}
	module, _, _ := strings.Cut(label, "_")
	ctx, span := telemetry.Tracer().Start(r.Context(), label)
	result, rpcErr := s.dispatch(r.WithContext(ctx), req)
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		span.SetStatus(codes.Error, rpcErr.Message)
	}
	span.SetAttributes(attribute.String("rpc.method", label), attribute.Int("rpc.code", code))
	span.End()
	observability.ModuleMetrics().Observe(module, label, code, time.Since(started))
	if rpcErr != nil {
		writeError(w, rpcErr.status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) dispatch(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	m, ok := s.methods[req.Method]
	if !ok {
		return nil, newError(http.StatusNotFound, codeMethodNotFound, "method not found", req.Method)
	}
	var caller lottery.Identity
	if !m.public {
		id, err := s.auth.Authenticate(r)
		if err != nil {
			s.logger.Debug("rejected unauthenticated call", "method", req.Method, "error", err)
			return nil, newError(http.StatusUnauthorized, codeUnauthorized, "unauthorized", err.Error())
		}
		caller = id
	}
	if !s.limiter.Allow(limiterKey(r, caller)) {
		module, _, _ := strings.Cut(req.Method, "_")
		observability.ModuleMetrics().RecordThrottle(module, "rate_limit")
		return nil, newError(http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded", nil)
	}
	return m.handler(&call{ctx: r.Context(), caller: caller, params: req.Params})
}

func limiterKey(r *http.Request, caller lottery.Identity) string {
	if caller != (lottery.Identity{}) {
		return "id:" + string(caller[:])
	}
	return "ip:" + clientID(r)
}
