package security

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"
)

func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

type failingKeyProvider struct {
	err error
}

func (p failingKeyProvider) SigningKey(context.Context) (KeyMaterial, error) {
	return KeyMaterial{}, p.err
}

func TestStaticKeyProvider_ValidatesUpFront(t *testing.T) {
	provider, err := NewStaticKeyProvider("app-123", testKeyPEM(t))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	material, err := provider.SigningKey(context.Background())
	if err != nil {
		t.Fatalf("signing key: %v", err)
	}
	if material.KeyID != "app-123" || material.PEM == "" {
		t.Fatalf("unexpected material: %+v", material)
	}

	if _, err := NewStaticKeyProvider("app-123", "not a key"); err == nil {
		t.Fatalf("expected malformed key rejected at construction")
	}
	if _, err := NewStaticKeyProvider("", testKeyPEM(t)); err == nil {
		t.Fatalf("expected missing key id rejected")
	}
}

func TestFailoverKeyProvider_StrictSurfacesPrimaryError(t *testing.T) {
	primaryErr := errors.New("kms unreachable")
	provider, err := NewFailoverKeyProvider(failingKeyProvider{err: primaryErr})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := provider.SigningKey(context.Background()); !errors.Is(err, primaryErr) {
		t.Fatalf("expected primary error, got %v", err)
	}
}

func TestFailoverKeyProvider_FallbackServesWhenPrimaryFails(t *testing.T) {
	static, err := NewStaticKeyProvider("backup-key", testKeyPEM(t))
	if err != nil {
		t.Fatalf("new static provider: %v", err)
	}

	var events []KeyProviderDiagnostic
	provider, err := NewFailoverKeyProvider(
		failingKeyProvider{err: errors.New("kms unreachable")},
		WithFallbackKeyProvider(static),
		WithKeyProviderFailurePolicy(KeyProviderFailurePolicyFallback),
		WithKeyProviderDiagnostics(func(event KeyProviderDiagnostic) {
			events = append(events, event)
		}),
		WithFailoverClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("new failover provider: %v", err)
	}

	material, err := provider.SigningKey(context.Background())
	if err != nil {
		t.Fatalf("signing key: %v", err)
	}
	if material.KeyID != "backup-key" {
		t.Fatalf("expected fallback material, got %+v", material)
	}
	if len(events) != 1 || events[0].Outcome != "fallback" {
		t.Fatalf("expected fallback diagnostic, got %+v", events)
	}
	if events[0].OccurredAt.IsZero() {
		t.Fatalf("expected diagnostic timestamp")
	}
}

func TestFailoverKeyProvider_FallbackPolicyRequiresFallback(t *testing.T) {
	if _, err := NewFailoverKeyProvider(
		failingKeyProvider{err: errors.New("x")},
		WithKeyProviderFailurePolicy(KeyProviderFailurePolicyFallback),
	); err == nil {
		t.Fatalf("expected missing fallback provider to fail construction")
	}
}
