package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
)

const (
	mediaTypeForm = "application/x-www-form-urlencoded"
	mediaTypeJSON = "application/json"

	maxRequestBodyBytes = 1 << 20

	descUnsupportedContentType = "Unsupported content type"
	descInvalidRequestBody     = "Invalid request body"
)

var pkceVerifierCharset = regexp.MustCompile(`^[A-Za-z0-9\-._~]+$`)

// requestFields lists the body parameters the OAuth endpoints read.
// Anything else in a body is ignored.
var requestFields = map[string]struct{}{
	"grant_type":      {},
	"code":            {},
	"redirect_uri":    {},
	"refresh_token":   {},
	"client_id":       {},
	"client_secret":   {},
	"code_verifier":   {},
	"token":           {},
	"token_type_hint": {},
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("pkce_charset", func(fl validator.FieldLevel) bool {
		return pkceVerifierCharset.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// parseTokenRequest normalizes a token endpoint request into an oauth2.TokenRequest
func (s *Server) parseTokenRequest(w http.ResponseWriter, r *http.Request) (oauth2.TokenRequest, error) {
	fields, err := readRequestFields(w, r)
	if err != nil {
		return oauth2.TokenRequest{}, err
	}
	applyBasicAuth(r, fields)

	req := oauth2.TokenRequest{
		GrantType:    oauth2.GrantType(fields["grant_type"]),
		Code:         fields["code"],
		RedirectURI:  fields["redirect_uri"],
		RefreshToken: fields["refresh_token"],
		ClientID:     fields["client_id"],
		ClientSecret: fields["client_secret"],
		CodeVerifier: fields["code_verifier"],
	}
	if err := s.validateRequest(req); err != nil {
		return oauth2.TokenRequest{}, err
	}
	return req, nil
}

// parseClientRequest normalizes a revocation or introspection request
func (s *Server) parseClientRequest(w http.ResponseWriter, r *http.Request) (oauth2.ClientRequest, error) {
	fields, err := readRequestFields(w, r)
	if err != nil {
		return oauth2.ClientRequest{}, err
	}
	applyBasicAuth(r, fields)

	req := oauth2.ClientRequest{
		Token:         fields["token"],
		TokenTypeHint: oauth2.TokenTypeHint(fields["token_type_hint"]),
		ClientID:      fields["client_id"],
		ClientSecret:  fields["client_secret"],
	}
	if err := s.validateRequest(req); err != nil {
		return oauth2.ClientRequest{}, err
	}
	return req, nil
}

// readRequestFields decodes a form or JSON body into a flat field map
func readRequestFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, oauth2.ErrInvalidRequest(descUnsupportedContentType)
	}

	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	switch mediaType {
	case mediaTypeForm:
		return readFormFields(body)
	case mediaTypeJSON:
		return readJSONFields(body)
	default:
		return nil, oauth2.ErrInvalidRequest(descUnsupportedContentType)
	}
}

func readFormFields(body io.Reader) (map[string]string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, oauth2.ErrInvalidRequest(descInvalidRequestBody)
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, oauth2.ErrInvalidRequest(descInvalidRequestBody)
	}

	fields := make(map[string]string, len(values))
	for name, value := range values {
		if _, known := requestFields[name]; known && len(value) > 0 {
			fields[name] = value[0]
		}
	}
	return fields, nil
}

func readJSONFields(body io.Reader) (map[string]string, error) {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, oauth2.ErrInvalidRequest(descInvalidRequestBody)
	}

	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		if _, known := requestFields[name]; !known || value == nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return nil, oauth2.ErrInvalidRequest(fmt.Sprintf("%s must be a string", name))
		}
		fields[name] = str
	}
	return fields, nil
}

// applyBasicAuth fills client_id and client_secret from an Authorization: Basic header when
// the body left them empty. A malformed header is ignored.
func applyBasicAuth(r *http.Request, fields map[string]string) {
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		return
	}
	if fields["client_id"] == "" {
		fields["client_id"] = unescapeCredential(clientID)
	}
	if fields["client_secret"] == "" {
		fields["client_secret"] = unescapeCredential(clientSecret)
	}
}

// unescapeCredential undoes the form encoding RFC 6749 section 2.3.1 applies to Basic
// credentials, keeping the raw value when it is not valid encoding.
func unescapeCredential(value string) string {
	unescaped, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return unescaped
}

func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return oauth2.ErrInvalidRequest(validationMessage(validationErrors[0]))
	}
	return oauth2.ErrInvalidRequest(descInvalidRequestBody)
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "pkce_charset":
		return fmt.Sprintf("%s contains invalid characters", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
