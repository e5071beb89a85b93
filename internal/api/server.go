// Package api exposes the callable notification functions over HTTP using the
// callable wire shape: requests carry {"data": {...}}, successes return
// {"result": {...}} and failures return {"error": {"status", "message"}}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"synctask-notifications/internal/common/auth"
	apperrors "synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/observability"
	"synctask-notifications/internal/models"
)

// Callable is an on-demand notification function invoked by an authenticated client.
type Callable interface {
	Name() string
	Execute(ctx context.Context, caller *auth.Caller, data map[string]interface{}) (*models.Acknowledgement, error)
}

// CallerVerifier resolves the caller identity from an Authorization header.
type CallerVerifier interface {
	VerifyHeader(ctx context.Context, header string) (*auth.Caller, error)
}

const callerKey = "caller"

type callRequest struct {
	Data map[string]interface{} `json:"data"`
}

type Server struct {
	engine   *gin.Engine
	verifier CallerVerifier
	obs      *observability.Observability
	log      logger.Logger
	timeout  time.Duration
	http     *http.Server
}

type Options struct {
	Verifier       CallerVerifier
	Observability  *observability.Observability
	Logger         logger.Logger
	ZapLogger      *zap.Logger
	RequestTimeout time.Duration
}

// NewServer builds the gin engine and registers one POST route per callable.
func NewServer(opts Options, callables ...Callable) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.ZapLogger == nil {
		opts.ZapLogger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(ginzap.Ginzap(opts.ZapLogger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(opts.ZapLogger, true))

	s := &Server{
		engine:   engine,
		verifier: opts.Verifier,
		obs:      opts.Observability,
		log:      opts.Logger,
		timeout:  opts.RequestTimeout,
	}

	functions := engine.Group("/", s.authenticate())
	for _, c := range callables {
		functions.POST(c.Name(), s.handle(c))
		s.log.Info("callable registered", map[string]interface{}{"function": c.Name()})
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("callable API listening", map[string]interface{}{"address": addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handle(c Callable) gin.HandlerFunc {
	return func(gc *gin.Context) {
		start := time.Now()
		ctx := gc.Request.Context()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		var caller *auth.Caller
		if v, ok := gc.Get(callerKey); ok {
			caller, _ = v.(*auth.Caller)
		}

		// A malformed body leaves data nil, which the callable reports as INVALID_ARGUMENT.
		var req callRequest
		if err := json.NewDecoder(gc.Request.Body).Decode(&req); err != nil {
			s.log.Debug("callable body not decoded", map[string]interface{}{
				"function": c.Name(),
				"error":    err.Error(),
			})
		}

		ack, err := c.Execute(ctx, caller, req.Data)
		if err != nil {
			ce := apperrors.AsCallableError(err)
			s.obs.RecordCall(ctx, c.Name(), string(ce.Status), time.Since(start))
			gc.JSON(ce.HTTPStatus(), gin.H{"error": ce})
			return
		}

		s.obs.RecordCall(ctx, c.Name(), "OK", time.Since(start))
		gc.JSON(http.StatusOK, gin.H{"result": ack})
	}
}

// authenticate resolves the bearer token into a caller. It never aborts: an
// absent or invalid token leaves no caller, and the callable rejects it after
// the route is matched.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(gc *gin.Context) {
		header := gc.GetHeader("Authorization")
		if s.verifier == nil || header == "" {
			gc.Next()
			return
		}
		caller, err := s.verifier.VerifyHeader(gc.Request.Context(), header)
		if err != nil {
			s.log.Warn("caller not authenticated", map[string]interface{}{
				"path":  gc.FullPath(),
				"error": err.Error(),
			})
			gc.Next()
			return
		}
		gc.Set(callerKey, caller)
		gc.Next()
	}
}
