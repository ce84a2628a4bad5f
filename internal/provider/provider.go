// Package provider implements the HTTP protocol surface: OIDC discovery,
// authorization and token endpoints, userinfo, introspection, revocation,
// logout and dynamic client registration. Face verification substitutes for
// the password check in the authorization flow.
package provider

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/blob"
	"github.com/facegate/facegate/internal/crypto"
	"github.com/facegate/facegate/internal/face"
	"github.com/facegate/facegate/internal/registry"
	"github.com/facegate/facegate/internal/session"
	"github.com/facegate/facegate/internal/store"
)

// Options carries the token lifetimes and matching threshold the provider
// operates with.
type Options struct {
	CodeTTL    time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Provider wires the protocol handlers to their backing services.
type Provider struct {
	log       *slog.Logger
	store     store.Store
	registry  *registry.Registry
	keySet    *crypto.KeySet
	jwt       *crypto.JWTService
	matcher   *face.Matcher
	extractor face.Extractor
	sessions  *session.Manager
	blobs     blob.Store
	opts      Options
}

func New(
	log *slog.Logger,
	st store.Store,
	reg *registry.Registry,
	keySet *crypto.KeySet,
	jwtSvc *crypto.JWTService,
	matcher *face.Matcher,
	extractor face.Extractor,
	sessions *session.Manager,
	blobs blob.Store,
	opts Options,
) *Provider {
	if opts.CodeTTL == 0 {
		opts.CodeTTL = 10 * time.Minute
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Provider{
		log:       log,
		store:     st,
		registry:  reg,
		keySet:    keySet,
		jwt:       jwtSvc,
		matcher:   matcher,
		extractor: extractor,
		sessions:  sessions,
		blobs:     blobs,
		opts:      opts,
	}
}

// RegisterRoutes mounts every endpoint on the router.
func (p *Provider) RegisterRoutes(r chi.Router) {
	r.Get("/.well-known/openid-configuration", p.handleDiscovery)

	r.Route("/oauth", func(r chi.Router) {
		r.Get("/authorize", p.handleAuthorize)
		r.Get("/capture", p.handleCapturePage)
		r.Post("/profile", p.handleProfile)
		r.Post("/verify", p.handleVerify)
		r.Post("/token", p.handleToken)
		r.Get("/userinfo", p.handleUserinfo)
		r.Post("/userinfo", p.handleUserinfo)
		r.Get("/jwks", p.handleJWKS)
		r.Post("/introspect", p.handleIntrospect)
		r.Post("/revoke", p.handleRevoke)
		r.Get("/logout", p.handleLogout)
		r.Post("/register", p.handleClientRegistration)
		r.Post("/backchannel-logout", p.handleBackchannelLogout)
	})
}

// issuerFromRequest derives the issuer URL from the incoming request so the
// discovery document stays correct behind proxies and port forwards.
func issuerFromRequest(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

// randomToken returns a URL-safe random string for codes and opaque tokens.
func randomToken(bytes int) string {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOAuthError emits an RFC 6749 error response body.
func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
