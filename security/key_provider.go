package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-bankfeed/auth"
)

// KeyMaterial is a private signing key together with the identifier the
// provider expects in the JWT header.
type KeyMaterial struct {
	KeyID string
	PEM   string
}

// KeyProvider sources the RS256 signing key used for per-call assertions.
type KeyProvider interface {
	SigningKey(ctx context.Context) (KeyMaterial, error)
}

// StaticKeyProvider holds key material handed over at construction, typically
// from configuration. The PEM may arrive raw or base64-wrapped; it is parsed
// once up front so a bad key fails at startup, not mid-request.
type StaticKeyProvider struct {
	material KeyMaterial
}

func NewStaticKeyProvider(keyID string, pem string) (*StaticKeyProvider, error) {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return nil, fmt.Errorf("security: key id is required")
	}
	if strings.TrimSpace(pem) == "" {
		return nil, fmt.Errorf("security: key material is required")
	}
	if _, err := auth.ParseRSAPrivateKey(pem); err != nil {
		return nil, fmt.Errorf("security: invalid signing key: %w", err)
	}
	return &StaticKeyProvider{material: KeyMaterial{KeyID: keyID, PEM: pem}}, nil
}

func (p *StaticKeyProvider) SigningKey(_ context.Context) (KeyMaterial, error) {
	if p == nil {
		return KeyMaterial{}, fmt.Errorf("security: key provider is nil")
	}
	return p.material, nil
}

var _ KeyProvider = (*StaticKeyProvider)(nil)
