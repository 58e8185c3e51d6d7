package server

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/oauth2"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}

		if s.env == "DEV" {
			s.logger.Info().Msgf("[%-19s] %s %s%d%s %s", displayMethod(r.Method), r.URL.Path,
				colourStatus(status), status, ResetColor, time.Since(start).Round(time.Microsecond))
			return
		}
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// RecoverMiddleware converts a panic in the handler into a server_error response
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().
					Str("path", r.URL.Path).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				writeOAuthError(w, oauth2.ErrServerError("Internal server error"))
			}
		}()
		next(w, r)
	}
}

// CorsMiddleware allows any origin on the OAuth endpoints. Token requests carry no cookies,
// so credentials are advertised together with the wildcard origin.
func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.GetAllowedOrigin())
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		next(w, r)
	}
}

// Preflight answers CORS OPTIONS requests
func (s *Server) Preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
		w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(s.config.GetPreflightMaxAge().Seconds())))
		w.WriteHeader(http.StatusNoContent)
	}
}

// RateLimitMiddleware rejects callers that exceed their per-IP token bucket.
// It is a pass-through when rate limiting is disabled.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.limiter.Allow(clientIP(r)) {
			next(w, r)
			return
		}
		s.inst.Metrics().RecordRateLimitExceeded(r.Context(), r.URL.Path)
		w.Header().Set("Retry-After", "1")
		writeOAuthError(w, oauth2.ErrRateLimited("Rate limit exceeded"))
	}
}

// clientIP uses the connection address. Forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
