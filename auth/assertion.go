package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/core"
)

const (
	// MaxAssertionTTL is the hard ceiling some open-banking gateways enforce
	// on assertion lifetimes. Anything at or past it is rejected upstream,
	// so the builder clamps before signing.
	MaxAssertionTTL = 24 * time.Hour

	// DefaultAssertionTTL leaves headroom under the ceiling.
	DefaultAssertionTTL = 20 * time.Hour
)

type AssertionConfig struct {
	Issuer     string
	Audience   string
	KeyID      string
	PrivateKey string
	TokenTTL   time.Duration
	Now        func() time.Time
}

// AssertionBuilder mints a fresh RS256 assertion on every call. Assertions
// are never cached: each outbound client gets its own short-lived token, so
// a leaked one expires on its own schedule.
type AssertionBuilder struct {
	config AssertionConfig
	key    *rsa.PrivateKey
}

func NewAssertionBuilder(cfg AssertionConfig) (*AssertionBuilder, error) {
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, fmt.Errorf("auth: assertion issuer is required")
	}
	key, err := ParseRSAPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultAssertionTTL
	}
	if ttl >= MaxAssertionTTL {
		ttl = MaxAssertionTTL - time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		keyID = issuer
	}

	return &AssertionBuilder{
		config: AssertionConfig{
			Issuer:   issuer,
			Audience: strings.TrimSpace(cfg.Audience),
			KeyID:    keyID,
			TokenTTL: ttl,
			Now:      now,
		},
		key: key,
	}, nil
}

func (b *AssertionBuilder) TTL() time.Duration {
	if b == nil {
		return 0
	}
	return b.config.TokenTTL
}

func (b *AssertionBuilder) Build(_ context.Context) (core.Token, error) {
	if b == nil || b.key == nil {
		return core.Token{}, fmt.Errorf("auth: assertion builder is not configured")
	}
	now := b.config.Now().UTC()
	expiresAt := now.Add(b.config.TokenTTL)
	claims := map[string]any{
		"iss": b.config.Issuer,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	if b.config.Audience != "" {
		claims["aud"] = b.config.Audience
	}

	token, err := buildRS256JWT(b.config.KeyID, b.key, claims)
	if err != nil {
		return core.Token{}, err
	}
	return core.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   &expiresAt,
	}, nil
}

// AssertionSigner satisfies core.Signer by minting a new assertion for each
// request. The Token argument is ignored on purpose.
type AssertionSigner struct {
	Builder *AssertionBuilder
}

func (s AssertionSigner) Sign(ctx context.Context, req *http.Request, _ core.Token) error {
	if req == nil {
		return fmt.Errorf("auth: http request is required")
	}
	if s.Builder == nil {
		return fmt.Errorf("auth: assertion builder is required")
	}
	token, err := s.Builder.Build(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return nil
}

var _ core.Signer = AssertionSigner{}
