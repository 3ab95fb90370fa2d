// Package server provides the gin based HTTP server and its lifecycle.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"

	apierrors "github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/infra/middleware"
	mwopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
	httpopts "github.com/kart-io/sentinel-docqa/pkg/options/server/http"
	"github.com/kart-io/sentinel-docqa/pkg/utils/response"
)

// Server is the HTTP server implementation.
type Server struct {
	opts   *httpopts.Options
	mwOpts *mwopts.Options
	engine *gin.Engine

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new HTTP server with the given options.
// HTTP metrics are registered on reg; a nil reg disables them.
func NewServer(serverOpts *httpopts.Options, middlewareOpts *mwopts.Options, reg prometheus.Registerer) *Server {
	if serverOpts == nil {
		serverOpts = httpopts.NewOptions()
	}
	if middlewareOpts == nil {
		middlewareOpts = mwopts.NewOptions()
	}
	_ = middlewareOpts.Complete()

	gin.SetMode(gin.ReleaseMode)

	// 不使用 gin 默认中间件
	engine := gin.New()
	engine.HandleMethodNotAllowed = false
	engine.MaxMultipartMemory = serverOpts.MaxUploadSize

	s := &Server{
		opts:   serverOpts,
		mwOpts: middlewareOpts,
		engine: engine,
	}

	// 中间件必须在路由注册之前应用，否则子路由组不会继承
	s.applyMiddleware(reg)

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrRouteNotFound)
	})

	return s
}

func (s *Server) applyMiddleware(reg prometheus.Registerer) {
	s.engine.Use(
		middleware.Recovery(s.mwOpts.Recovery),
		middleware.RequestID(s.mwOpts.RequestID),
		middleware.Tracing(),
		middleware.Logger(s.mwOpts.Logger),
	)
	if reg != nil {
		s.engine.Use(middleware.NewMetricsCollector(s.mwOpts.Metrics, reg).Handler())
	}
	s.engine.Use(middleware.BodyLimit(s.opts.MaxUploadSize))
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start binds the listen address and serves in the background.
// Bind errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("http server already started")
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server stopped unexpectedly", "addr", ln.Addr().String(), "error", err)
		}
	}()

	logger.Infow("HTTP server started", "addr", ln.Addr().String())
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
