package bankfeed

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers/devkit"
	"github.com/goliatone/go-bankfeed/security"
	"github.com/goliatone/go-bankfeed/transport"
)

func testSigningKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

func testTransports() *transport.Registry {
	registry := transport.NewRegistry()
	_ = registry.Register(devkit.NewFakeTransportAdapter(transport.KindREST))
	_ = registry.Register(devkit.NewFakeTransportAdapter(transport.KindMTLS))
	return registry
}

func fullyConfigured(pemKey string) core.Config {
	cfg := DefaultConfig()
	cfg.Plaid = core.PlaidConfig{ClientID: "plaid-client", Secret: "plaid-secret"}
	cfg.Teller = core.TellerConfig{CertificatePEM: "cert", PrivateKeyPEM: "key"}
	cfg.GoCardless = core.GoCardlessConfig{SecretID: "gc-id", SecretKey: "gc-key"}
	cfg.EnableBanking = core.EnableBankingConfig{
		ApplicationID:    "app-123",
		PrivateKeyBase64: base64.StdEncoding.EncodeToString([]byte(pemKey)),
		TokenTTL:         20 * time.Hour,
	}
	return cfg
}

func TestRegisterAdaptersBuildsEveryConfiguredProvider(t *testing.T) {
	registry := core.NewAdapterRegistry()
	cfg := fullyConfigured(testSigningKeyPEM(t))

	if err := RegisterAdapters(registry, cfg, testTransports()); err != nil {
		t.Fatalf("register adapters: %v", err)
	}

	for _, provider := range []core.ProviderID{
		core.ProviderPlaid,
		core.ProviderTeller,
		core.ProviderGoCardless,
		core.ProviderEnableBanking,
	} {
		if _, ok := registry.Get(provider); !ok {
			t.Fatalf("expected %s adapter to be registered", provider)
		}
	}
}

func TestRegisterAdaptersSkipsUnconfiguredProviders(t *testing.T) {
	registry := core.NewAdapterRegistry()

	if err := RegisterAdapters(registry, DefaultConfig(), testTransports()); err != nil {
		t.Fatalf("register adapters: %v", err)
	}
	if got := len(registry.List()); got != 0 {
		t.Fatalf("expected no adapters without credentials, got %d", got)
	}
}

func TestRegisterAdaptersUsesSigningKeyProvider(t *testing.T) {
	registry := core.NewAdapterRegistry()
	cfg := DefaultConfig()
	cfg.EnableBanking = core.EnableBankingConfig{
		ApplicationID: "app-456",
		TokenTTL:      20 * time.Hour,
	}

	keys, err := security.NewStaticKeyProvider("app-456", testSigningKeyPEM(t))
	if err != nil {
		t.Fatalf("static key provider: %v", err)
	}

	if err := RegisterAdapters(registry, cfg, testTransports(), WithSigningKeys(keys)); err != nil {
		t.Fatalf("register adapters: %v", err)
	}
	if _, ok := registry.Get(core.ProviderEnableBanking); !ok {
		t.Fatalf("expected enablebanking adapter from key provider material")
	}
}

func TestRegisterAdaptersRejectsBadKeyMaterial(t *testing.T) {
	registry := core.NewAdapterRegistry()
	cfg := DefaultConfig()
	cfg.EnableBanking = core.EnableBankingConfig{
		ApplicationID:    "app-789",
		PrivateKeyBase64: "%%not-base64%%",
	}

	if err := RegisterAdapters(registry, cfg, testTransports()); err == nil {
		t.Fatalf("expected invalid base64 key material to fail")
	}
}

func TestRegisterAdaptersRequiresRESTTransport(t *testing.T) {
	registry := core.NewAdapterRegistry()
	if err := RegisterAdapters(registry, DefaultConfig(), transport.NewRegistry()); err == nil {
		t.Fatalf("expected missing rest transport to fail")
	}
}
