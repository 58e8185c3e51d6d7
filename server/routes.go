package server

import "net/http"

func (s *Server) initRoutes() {
	// OAuth2 token endpoints
	s.RegisterRouteHandler("POST "+RouteOAuthToken, ChainMiddleware(s.Token(), s.OAuthMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuthRevoke, ChainMiddleware(s.Revoke(), s.OAuthMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuthIntrospect, ChainMiddleware(s.Introspect(), s.OAuthMiddleware()...))

	// CORS preflight
	for _, route := range []string{RouteOAuthToken, RouteOAuthRevoke, RouteOAuthIntrospect} {
		s.RegisterRouteHandler("OPTIONS "+route, ChainMiddleware(s.Preflight(), s.APIMiddleware()...))
	}

	s.RegisterRouteHandler("GET "+RouteWellKnownAuthServer, ChainMiddleware(s.AuthorizationServerMetadata(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.Healthz(), s.RecoverMiddleware))

	if handler := s.inst.MetricsHandler(); handler != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(handler.ServeHTTP, s.RecoverMiddleware))
	}
}

// APIMiddleware is the stack shared by every JSON endpoint
func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
	}
}

// OAuthMiddleware adds rate limiting on top of the API stack
func (s *Server) OAuthMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(s.APIMiddleware(), s.RateLimitMiddleware)
}
