package core

import (
	"fmt"
	"strings"
	"time"
)

type OrchestratorConfig struct {
	MaxConcurrent  int           `koanf:"max_concurrent" mapstructure:"max_concurrent"`
	ItemTimeout    time.Duration `koanf:"item_timeout" mapstructure:"item_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type PlaidConfig struct {
	BaseURL  string `koanf:"base_url" mapstructure:"base_url"`
	ClientID string `koanf:"client_id" mapstructure:"client_id"`
	Secret   string `koanf:"secret" mapstructure:"secret"`
}

type TellerConfig struct {
	BaseURL        string `koanf:"base_url" mapstructure:"base_url"`
	CertificatePEM string `koanf:"certificate_pem" mapstructure:"certificate_pem"`
	PrivateKeyPEM  string `koanf:"private_key_pem" mapstructure:"private_key_pem"`
}

type GoCardlessConfig struct {
	BaseURL   string `koanf:"base_url" mapstructure:"base_url"`
	SecretID  string `koanf:"secret_id" mapstructure:"secret_id"`
	SecretKey string `koanf:"secret_key" mapstructure:"secret_key"`
}

type EnableBankingConfig struct {
	BaseURL          string        `koanf:"base_url" mapstructure:"base_url"`
	ApplicationID    string        `koanf:"application_id" mapstructure:"application_id"`
	PrivateKeyBase64 string        `koanf:"private_key_base64" mapstructure:"private_key_base64"`
	TokenTTL         time.Duration `koanf:"token_ttl" mapstructure:"token_ttl"`
}

type Config struct {
	ServiceName   string              `koanf:"service_name" mapstructure:"service_name"`
	Fetch         OrchestratorConfig  `koanf:"fetch" mapstructure:"fetch"`
	Plaid         PlaidConfig         `koanf:"plaid" mapstructure:"plaid"`
	Teller        TellerConfig        `koanf:"teller" mapstructure:"teller"`
	GoCardless    GoCardlessConfig    `koanf:"gocardless" mapstructure:"gocardless"`
	EnableBanking EnableBankingConfig `koanf:"enablebanking" mapstructure:"enablebanking"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "bankfeed",
		Fetch: OrchestratorConfig{
			MaxConcurrent:  2,
			ItemTimeout:    8 * time.Second,
			RequestTimeout: 28 * time.Second,
		},
		EnableBanking: EnableBankingConfig{
			TokenTTL: 20 * time.Hour,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Fetch.MaxConcurrent <= 0 {
		return fmt.Errorf("core: fetch.max_concurrent must be positive")
	}
	if c.Fetch.ItemTimeout <= 0 {
		return fmt.Errorf("core: fetch.item_timeout must be positive")
	}
	if c.Fetch.RequestTimeout <= 0 {
		return fmt.Errorf("core: fetch.request_timeout must be positive")
	}
	if c.EnableBanking.TokenTTL >= 24*time.Hour {
		return fmt.Errorf("core: enablebanking.token_ttl must stay below 24h")
	}
	return nil
}
