package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/mcp-token-proxy/auth"
	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/jrsteele09/mcp-token-proxy/internal/config"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether a dependency (normally the database) is reachable
type HealthCheck func(ctx context.Context) error

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	tokens   *auth.TokenService
	inst     *instrumentation.Instrumentation
	logger   zerolog.Logger
	limiter  *RateLimiter
	validate *validator.Validate
	health   HealthCheck
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithLogger sets the logger used for access logs and route listings
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithInstrumentation exposes /metrics and records rate limit rejections
func WithInstrumentation(inst *instrumentation.Instrumentation) ServerOption {
	return func(s *Server) {
		s.inst = inst
	}
}

// WithHealthCheck makes /healthz report 503 while the check fails
func WithHealthCheck(check HealthCheck) ServerOption {
	return func(s *Server) {
		s.health = check
	}
}

func New(config config.Config, tokenService *auth.TokenService, options ...ServerOption) (*Server, error) {
	if config == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if tokenService == nil {
		return nil, errors.New("[Server New] token service is required")
	}

	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create request validator: %w", err)
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		tokens:   tokenService,
		logger:   zerolog.Nop(),
		validate: validate,
	}
	for _, option := range options {
		option(s)
	}
	if s.inst == nil {
		s.inst = instrumentation.NewDisabled()
	}
	if config.GetEnableRateLimiting() {
		s.limiter = NewRateLimiter(config.GetRateLimitRPS(), config.GetRateLimitBurst(), s.logger)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops background work owned by the server
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msgf("[%-19s] %s", displayMethod(method), path)
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
