package appstore

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audience = "appstoreconnect-v1"
	// tokenLifetime is the validity of a signed token; App Store Connect rejects anything longer
	// than 20 minutes.
	tokenLifetime = 20 * time.Minute
	// refreshSkew renews a cached token this long before it expires.
	refreshSkew = time.Minute
)

// Credentials is an App Store Connect API key.
type Credentials struct {
	// KeyID is the identifier of the API key, sent as the token's kid header.
	KeyID string
	// IssuerID identifies the team owning the key.
	IssuerID string
	// PrivateKey is the PEM encoded .p8 key downloaded from App Store Connect.
	PrivateKey []byte
}

// Validate checks that every field is set.
func (c Credentials) Validate() error {
	var missing []string
	if c.KeyID == "" {
		missing = append(missing, "key id")
	}
	if c.IssuerID == "" {
		missing = append(missing, "issuer id")
	}
	if len(c.PrivateKey) == 0 {
		missing = append(missing, "private key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("app store connect credentials missing %v", missing)
	}

	return nil
}

// String never renders the key material.
func (c Credentials) String() string {
	return fmt.Sprintf("appstore.Credentials{KeyID: %s, IssuerID: %s, PrivateKey: [redacted]}", c.KeyID, c.IssuerID)
}

// tokenSource signs and caches ES256 bearer tokens.
type tokenSource struct {
	keyID    string
	issuerID string
	key      *ecdsa.PrivateKey
	now      func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(creds Credentials) (*tokenSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(creds.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse app store connect private key: %w", err)
	}

	return &tokenSource{
		keyID:    creds.KeyID,
		issuerID: creds.IssuerID,
		key:      key,
		now:      time.Now,
	}, nil
}

// Token returns a valid signed token, reusing the cached one until shortly before it expires.
func (s *tokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(refreshSkew).Before(s.expires) {
		return s.token, nil
	}

	expires := now.Add(tokenLifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		Audience:  jwt.ClaimStrings{audience},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = s.keyID

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign app store connect token: %w", err)
	}
	s.token, s.expires = signed, expires

	return signed, nil
}
