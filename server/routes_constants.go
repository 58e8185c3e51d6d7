package server

// Route path constants
const (
	// OAuth2 Routes
	RouteOAuthToken      = "/oauth/token"
	RouteOAuthRevoke     = "/oauth/revoke"
	RouteOAuthIntrospect = "/oauth/introspect"

	// Discovery
	RouteWellKnownAuthServer = "/.well-known/oauth-authorization-server"

	// Operational
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)
