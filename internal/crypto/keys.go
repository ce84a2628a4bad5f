package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// KeySet manages the RSA signing key used for ID tokens and logout tokens.
type KeySet struct {
	rsaKey    *rsa.PrivateKey
	rsaKeyID  string
	createdAt time.Time
	mu        sync.RWMutex
}

// NewKeySet generates a fresh 2048-bit RSA key set.
func NewKeySet() (*KeySet, error) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	return &KeySet{
		rsaKey:    rsaKey,
		rsaKeyID:  generateKeyID("rsa"),
		createdAt: time.Now(),
	}, nil
}

func generateKeyID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%s-%x", prefix, b)
}

// RSAPrivateKey returns the RSA private key.
func (ks *KeySet) RSAPrivateKey() *rsa.PrivateKey {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.rsaKey
}

// RSAPublicKey returns the RSA public key.
func (ks *KeySet) RSAPublicKey() *rsa.PublicKey {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return &ks.rsaKey.PublicKey
}

// RSAKeyID returns the RSA key ID.
func (ks *KeySet) RSAKeyID() string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.rsaKeyID
}

// Rotate generates a new signing key. Outstanding ID tokens signed with the
// old key stop verifying, which is acceptable for their short lifetime.
func (ks *KeySet) Rotate() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	ks.rsaKey = rsaKey
	ks.rsaKeyID = generateKeyID("rsa")
	ks.createdAt = time.Now()
	return nil
}

// CreatedAt returns when the current key was created.
func (ks *KeySet) CreatedAt() time.Time {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.createdAt
}

// JWK represents a JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`

	// RSA specific
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
}

// JWKS represents a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWKS returns the public signing keys in JWKS format.
func (ks *KeySet) PublicJWKS() JWKS {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return JWKS{Keys: []JWK{ks.rsaPublicJWK()}}
}

func (ks *KeySet) rsaPublicJWK() JWK {
	pub := &ks.rsaKey.PublicKey
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: ks.rsaKeyID,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
