// Package reqctx round-trips OAuth2 authorization request parameters through
// browser-visible form fields as an opaque string.
package reqctx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrMalformed indicates a context string that cannot be decoded or that is
// missing required fields. Malformed contexts abort the flow.
var ErrMalformed = errors.New("malformed request context")

// Context carries the parameters of a pending authorization request across
// the login and registration pages.
type Context struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope,omitempty"`
	State       string `json:"state,omitempty"`
	Nonce       string `json:"nonce,omitempty"`
}

// Encode serializes the context into a URL-safe opaque string.
func Encode(c Context) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses an encoded context. Anything that does not decode into a
// context with a client_id and redirect_uri is rejected.
func Decode(s string) (Context, error) {
	if s == "" {
		return Context{}, ErrMalformed
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Context{}, ErrMalformed
	}
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return Context{}, ErrMalformed
	}
	if c.ClientID == "" || c.RedirectURI == "" {
		return Context{}, ErrMalformed
	}
	return c, nil
}
