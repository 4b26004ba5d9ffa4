package bankfeed

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers/enablebanking"
	"github.com/goliatone/go-bankfeed/providers/gocardless"
	"github.com/goliatone/go-bankfeed/providers/plaid"
	"github.com/goliatone/go-bankfeed/providers/teller"
	"github.com/goliatone/go-bankfeed/security"
	"github.com/goliatone/go-bankfeed/transport"
)

func PlaidAdapter(cfg core.PlaidConfig, tr core.TransportAdapter) (core.BankAdapter, error) {
	return plaid.New(plaid.Config{
		BaseURL:  cfg.BaseURL,
		ClientID: cfg.ClientID,
		Secret:   cfg.Secret,
	}, tr)
}

func TellerAdapter(cfg core.TellerConfig, fetch core.OrchestratorConfig, tr core.TransportAdapter) (core.BankAdapter, error) {
	return teller.New(teller.Config{
		BaseURL: cfg.BaseURL,
		Fetch:   fetch,
	}, tr)
}

func GoCardlessAdapter(cfg core.GoCardlessConfig, fetch core.OrchestratorConfig, tr core.TransportAdapter) (core.BankAdapter, error) {
	return gocardless.New(gocardless.Config{
		BaseURL:   cfg.BaseURL,
		SecretID:  cfg.SecretID,
		SecretKey: cfg.SecretKey,
		Fetch:     fetch,
	}, tr)
}

// EnableBankingAdapter sources the signing key from the provider when one is
// given, otherwise from the base64-encoded PEM in config.
func EnableBankingAdapter(
	cfg core.EnableBankingConfig,
	fetch core.OrchestratorConfig,
	tr core.TransportAdapter,
	keys security.KeyProvider,
) (core.BankAdapter, error) {
	pem, err := resolveSigningPEM(cfg, keys)
	if err != nil {
		return nil, err
	}
	return enablebanking.New(enablebanking.Config{
		BaseURL:       cfg.BaseURL,
		ApplicationID: cfg.ApplicationID,
		PrivateKey:    pem,
		TokenTTL:      cfg.TokenTTL,
		Fetch:         fetch,
	}, tr)
}

type registerOptions struct {
	keys security.KeyProvider
}

type RegisterOption func(*registerOptions)

// WithSigningKeys routes the Enable Banking signing key through a key
// provider instead of the inline config material.
func WithSigningKeys(keys security.KeyProvider) RegisterOption {
	return func(options *registerOptions) {
		options.keys = keys
	}
}

// RegisterAdapters builds every provider with credentials in cfg and adds it
// to the registry. Providers left unconfigured are skipped, not failed: a
// deployment usually enables a subset.
func RegisterAdapters(registry core.Registry, cfg core.Config, transports *transport.Registry, opts ...RegisterOption) error {
	if registry == nil {
		return fmt.Errorf("bankfeed: adapter registry is required")
	}
	if transports == nil {
		return fmt.Errorf("bankfeed: transport registry is required")
	}
	options := registerOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	rest, ok := transports.Get(transport.KindREST)
	if !ok {
		return fmt.Errorf("bankfeed: rest transport is not registered")
	}

	if strings.TrimSpace(cfg.Plaid.ClientID) != "" && strings.TrimSpace(cfg.Plaid.Secret) != "" {
		adapter, err := PlaidAdapter(cfg.Plaid, rest)
		if err != nil {
			return err
		}
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.Teller.CertificatePEM) != "" && strings.TrimSpace(cfg.Teller.PrivateKeyPEM) != "" {
		mtls, err := transports.Build(transport.KindMTLS, map[string]any{
			"certificate_pem": cfg.Teller.CertificatePEM,
			"private_key_pem": cfg.Teller.PrivateKeyPEM,
		})
		if err != nil {
			return err
		}
		adapter, err := TellerAdapter(cfg.Teller, cfg.Fetch, mtls)
		if err != nil {
			return err
		}
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.GoCardless.SecretID) != "" && strings.TrimSpace(cfg.GoCardless.SecretKey) != "" {
		adapter, err := GoCardlessAdapter(cfg.GoCardless, cfg.Fetch, rest)
		if err != nil {
			return err
		}
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}

	hasKeyMaterial := options.keys != nil || strings.TrimSpace(cfg.EnableBanking.PrivateKeyBase64) != ""
	if strings.TrimSpace(cfg.EnableBanking.ApplicationID) != "" && hasKeyMaterial {
		adapter, err := EnableBankingAdapter(cfg.EnableBanking, cfg.Fetch, rest, options.keys)
		if err != nil {
			return err
		}
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}

	return nil
}

func resolveSigningPEM(cfg core.EnableBankingConfig, keys security.KeyProvider) (string, error) {
	if keys != nil {
		material, err := keys.SigningKey(context.Background())
		if err != nil {
			return "", err
		}
		return material.PEM, nil
	}
	encoded := strings.TrimSpace(cfg.PrivateKeyBase64)
	if encoded == "" {
		return "", fmt.Errorf("bankfeed: enablebanking signing key is not configured")
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("bankfeed: enablebanking private key is not valid base64: %w", err)
	}
	return string(decoded), nil
}
