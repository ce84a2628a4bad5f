package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// backchannelLogoutEvent is the member name a logout token carries in its
// events claim (OIDC Back-Channel Logout 1.0 Section 2.4).
const backchannelLogoutEvent = "http://schemas.openid.net/event/backchannel-logout"

var (
	// ErrInvalidLogoutToken is returned for any logout token that fails
	// signature or claim validation.
	ErrInvalidLogoutToken = errors.New("invalid logout token")
)

// JWTService signs and validates the JWTs the provider issues: ID tokens
// and logout tokens. Access and refresh tokens are opaque and never pass
// through here.
type JWTService struct {
	keySet *KeySet
}

// NewJWTService creates a new JWT service bound to a key set. The issuer is
// supplied per call because it is derived from each request's host.
func NewJWTService(keySet *KeySet) *JWTService {
	return &JWTService{keySet: keySet}
}

// CreateIDToken creates a signed OIDC ID token carrying the standard claims
// plus the caller-supplied profile claims.
func (s *JWTService) CreateIDToken(issuer, subject, audience, nonce string, authTime time.Time, duration time.Duration, profileClaims map[string]interface{}) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":       issuer,
		"sub":       subject,
		"aud":       audience,
		"exp":       now.Add(duration).Unix(),
		"iat":       now.Unix(),
		"auth_time": authTime.Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	for k, v := range profileClaims {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keySet.RSAKeyID()

	return token.SignedString(s.keySet.RSAPrivateKey())
}

// CreateLogoutToken creates a signed back-channel logout token for a subject.
func (s *JWTService) CreateLogoutToken(issuer, subject, audience string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": subject,
		"aud": audience,
		"iat": now.Unix(),
		"exp": now.Add(2 * time.Minute).Unix(),
		"jti": generateKeyID("jti"),
		"events": map[string]interface{}{
			backchannelLogoutEvent: map[string]interface{}{},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keySet.RSAKeyID()

	return token.SignedString(s.keySet.RSAPrivateKey())
}

// VerifyLogoutToken validates a back-channel logout token per OIDC
// Back-Channel Logout 1.0 Section 2.6 and returns the subject it names:
// RS256 signature against our key, the backchannel-logout events member
// present, a sub claim present, and no nonce claim.
func (s *JWTService) VerifyLogoutToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLogoutToken, err)
	}

	if _, hasNonce := claims["nonce"]; hasNonce {
		return "", fmt.Errorf("%w: nonce claim is prohibited", ErrInvalidLogoutToken)
	}

	events, ok := claims["events"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%w: missing events claim", ErrInvalidLogoutToken)
	}
	if _, ok := events[backchannelLogoutEvent]; !ok {
		return "", fmt.Errorf("%w: missing backchannel-logout event", ErrInvalidLogoutToken)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidLogoutToken)
	}

	return sub, nil
}

// ValidateToken validates a JWT signed with our key and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	return s.parse(tokenString)
}

func (s *JWTService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.keySet.RSAPublicKey(), nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}
	return claims, nil
}
