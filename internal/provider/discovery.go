package provider

import (
	"net/http"

	"github.com/facegate/facegate/pkg/models"
)

func (p *Provider) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	issuer := issuerFromRequest(r)

	doc := models.DiscoveryDocument{
		Issuer:                     issuer,
		AuthorizationEndpoint:      issuer + "/oauth/authorize",
		TokenEndpoint:              issuer + "/oauth/token",
		UserinfoEndpoint:           issuer + "/oauth/userinfo",
		JwksURI:                    issuer + "/oauth/jwks",
		RegistrationEndpoint:       issuer + "/oauth/register",
		RevocationEndpoint:         issuer + "/oauth/revoke",
		IntrospectionEndpoint:      issuer + "/oauth/introspect",
		EndSessionEndpoint:         issuer + "/oauth/logout",
		BackchannelLogoutSupported: true,
		ScopesSupported:            []string{"openid", "profile", "email", "phone"},
		ResponseTypesSupported:     []string{"code"},
		GrantTypesSupported:        []string{"authorization_code", "refresh_token"},
		SubjectTypesSupported:      []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{"RS256"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post"},
		ClaimsSupported: []string{
			"sub", "iss", "aud", "exp", "iat", "auth_time", "nonce",
			"name", "given_name", "family_name", "preferred_username",
			"email", "email_verified", "phone_number", "phone_number_verified",
			"face_verified", "picture", "updated_at",
		},
	}

	writeJSON(w, http.StatusOK, doc)
}

func (p *Provider) handleJWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.keySet.PublicJWKS())
}
