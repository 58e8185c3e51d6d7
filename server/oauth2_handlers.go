package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/mcp-token-proxy/oauth2"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Token exchanges an authorization code or refresh token for a proxy token pair
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenReq, err := s.parseTokenRequest(w, r)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		tokenResponse, err := s.tokens.Exchange(r.Context(), tokenReq)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		setNoStore(w)
		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

// Revoke deletes a proxy token owned by the authenticated client (RFC 7009)
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientReq, err := s.parseClientRequest(w, r)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		if err := s.tokens.Revoke(r.Context(), clientReq); err != nil {
			writeOAuthError(w, err)
			return
		}

		setNoStore(w)
		w.WriteHeader(http.StatusOK)
	}
}

// Introspect reports whether a proxy token is active (RFC 7662)
func (s *Server) Introspect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientReq, err := s.parseClientRequest(w, r)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		introspection, err := s.tokens.Introspect(r.Context(), clientReq)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		setNoStore(w)
		writeJSON(w, http.StatusOK, introspection)
	}
}

// AuthorizationServerMetadata serves the RFC 8414 discovery document
func (s *Server) AuthorizationServerMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.config.GetBaseURL()

		resp := map[string]any{
			"issuer":                 baseURL,
			"token_endpoint":         baseURL + RouteOAuthToken,
			"revocation_endpoint":    baseURL + RouteOAuthRevoke,
			"introspection_endpoint": baseURL + RouteOAuthIntrospect,

			"grant_types_supported":            []oauth2.GrantType{oauth2.AuthorizationCodeGrant, oauth2.RefreshTokenGrant},
			"code_challenge_methods_supported": []oauth2.CodeMethodType{oauth2.CodeMethodTypeS256, oauth2.CodeMethodTypePlain},
			"scopes_supported":                 []string{"openid", "profile", "email"},

			"token_endpoint_auth_methods_supported": []string{
				"client_secret_basic",
				"client_secret_post",
				"none", // public clients with PKCE
			},
			"revocation_endpoint_auth_methods_supported":    []string{"client_secret_basic", "client_secret_post", "none"},
			"introspection_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post", "none"},
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, resp)
	}
}

// Healthz reports liveness, and database reachability when a health check is configured
func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil {
			if err := s.health(r.Context()); err != nil {
				s.logger.Warn().Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeOAuthError writes an OAuth2 error response. Errors that are not *oauth2.Error
// become a generic server_error.
func writeOAuthError(w http.ResponseWriter, err error) {
	oauthErr := oauth2.AsError(err)
	setNoStore(w)
	writeJSON(w, oauthErr.Status, oauthErr)
}
