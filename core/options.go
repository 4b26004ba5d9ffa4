package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type engineBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	registry        Registry
	rateLimitPolicy RateLimitPolicy
	institutions    InstitutionStore
	eventSink       EventSink
	enqueuer        JobEnqueuer
}

type Option func(*engineBuilder)

func WithLogger(logger Logger) Option {
	return func(b *engineBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *engineBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *engineBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *engineBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *engineBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *engineBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *engineBuilder) {
		b.optionsResolver = resolver
	}
}

func WithRegistry(registry Registry) Option {
	return func(b *engineBuilder) {
		b.registry = registry
	}
}

func WithRateLimitPolicy(policy RateLimitPolicy) Option {
	return func(b *engineBuilder) {
		b.rateLimitPolicy = policy
	}
}

func WithInstitutionStore(store InstitutionStore) Option {
	return func(b *engineBuilder) {
		b.institutions = store
	}
}

func WithEventSink(sink EventSink) Option {
	return func(b *engineBuilder) {
		b.eventSink = sink
	}
}

func WithEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *engineBuilder) {
		b.enqueuer = enqueuer
	}
}

func defaultEngineBuilder(runtime Config) engineBuilder {
	loggerProvider, logger := glog.Resolve("bankfeed", nil, nil)
	return engineBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		registry:        NewAdapterRegistry(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return engineErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	if includeZero || cfg.Fetch != (OrchestratorConfig{}) {
		fetch := map[string]any{}
		if includeZero || cfg.Fetch.MaxConcurrent != 0 {
			fetch["max_concurrent"] = cfg.Fetch.MaxConcurrent
		}
		if includeZero || cfg.Fetch.ItemTimeout != 0 {
			fetch["item_timeout"] = cfg.Fetch.ItemTimeout
		}
		if includeZero || cfg.Fetch.RequestTimeout != 0 {
			fetch["request_timeout"] = cfg.Fetch.RequestTimeout
		}
		layer["fetch"] = fetch
	}

	if includeZero || cfg.Plaid != (PlaidConfig{}) {
		layer["plaid"] = map[string]any{
			"base_url":  cfg.Plaid.BaseURL,
			"client_id": cfg.Plaid.ClientID,
			"secret":    cfg.Plaid.Secret,
		}
	}
	if includeZero || cfg.Teller != (TellerConfig{}) {
		layer["teller"] = map[string]any{
			"base_url":        cfg.Teller.BaseURL,
			"certificate_pem": cfg.Teller.CertificatePEM,
			"private_key_pem": cfg.Teller.PrivateKeyPEM,
		}
	}
	if includeZero || cfg.GoCardless != (GoCardlessConfig{}) {
		layer["gocardless"] = map[string]any{
			"base_url":   cfg.GoCardless.BaseURL,
			"secret_id":  cfg.GoCardless.SecretID,
			"secret_key": cfg.GoCardless.SecretKey,
		}
	}
	if includeZero || cfg.EnableBanking != (EnableBankingConfig{}) {
		eb := map[string]any{
			"base_url":           cfg.EnableBanking.BaseURL,
			"application_id":     cfg.EnableBanking.ApplicationID,
			"private_key_base64": cfg.EnableBanking.PrivateKeyBase64,
		}
		if includeZero || cfg.EnableBanking.TokenTTL != 0 {
			eb["token_ttl"] = cfg.EnableBanking.TokenTTL
		}
		layer["enablebanking"] = eb
	}
	return layer
}
