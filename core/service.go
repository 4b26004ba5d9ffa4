package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

var ErrAdapterNotFound = errors.New("core: adapter not found")

// Engine is the provider-agnostic entry point. Callers talk to the Engine;
// the Engine resolves the right BankAdapter, enforces the request deadline,
// normalizes errors, and emits domain events.
type Engine struct {
	config          Config
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

	now func() time.Time
}

type EngineDependencies struct {
	Logger           Logger
	LoggerProvider   LoggerProvider
	MetricsRecorder  MetricsRecorder
	ErrorFactory     ErrorFactory
	ErrorMapper      ErrorMapper
	ConfigProvider   ConfigProvider
	OptionsResolver  OptionsResolver
	Registry         Registry
	RateLimitPolicy  RateLimitPolicy
	InstitutionStore InstitutionStore
	EventSink        EventSink
	Enqueuer         JobEnqueuer
}

func NewEngine(cfg Config, options ...Option) (*Engine, error) {
	builder := defaultEngineBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("bankfeed", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("bankfeed"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewAdapterRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Engine{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		registry:        builder.registry,
		rateLimitPolicy: builder.rateLimitPolicy,
		institutions:    builder.institutions,
		eventSink:       builder.eventSink,
		enqueuer:        builder.enqueuer,
		now:             func() time.Time { return time.Now().UTC() },
	}, nil
}

func Setup(cfg Config, options ...Option) (*Engine, error) {
	return NewEngine(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return e.config
}

func (e *Engine) Dependencies() EngineDependencies {
	if e == nil {
		return EngineDependencies{}
	}
	return EngineDependencies{
		Logger:           e.logger,
		LoggerProvider:   e.loggerProvider,
		MetricsRecorder:  e.metricsRecorder,
		ErrorFactory:     e.errorFactory,
		ErrorMapper:      e.errorMapper,
		ConfigProvider:   e.configProvider,
		OptionsResolver:  e.optionsResolver,
		Registry:         e.registry,
		RateLimitPolicy:  e.rateLimitPolicy,
		InstitutionStore: e.institutions,
		EventSink:        e.eventSink,
		Enqueuer:         e.enqueuer,
	}
}

func (e *Engine) mapError(err error) error {
	if err == nil {
		return nil
	}
	if e == nil || e.errorMapper == nil {
		return err
	}
	mapped := e.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (e *Engine) resolveAdapter(provider ProviderID) (BankAdapter, error) {
	if e == nil || e.registry == nil {
		return nil, fmt.Errorf("core: registry is not configured")
	}
	id, err := ParseProviderID(string(provider))
	if err != nil {
		return nil, NewUnsupportedProviderError(string(provider))
	}
	adapter, ok := e.registry.Get(id)
	if !ok {
		return nil, NewUnsupportedProviderError(string(id))
	}
	return adapter, nil
}

// requestContext applies the whole-request deadline. Expiry surfaces as a
// TimeoutError through finishRequest, not as a bare context error.
func (e *Engine) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := e.config.Fetch.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().Fetch.RequestTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func (e *Engine) finishRequest(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(operation + " exceeded the request deadline")
	}
	return e.mapError(err)
}

func (e *Engine) gateCall(ctx context.Context, provider ProviderID, operation string) error {
	if e == nil || e.rateLimitPolicy == nil {
		return nil
	}
	if err := e.rateLimitPolicy.BeforeCall(ctx, RateLimitKey{Provider: provider, Operation: operation}); err != nil {
		return e.mapError(err)
	}
	return nil
}

func (e *Engine) Authenticate(ctx context.Context, req AuthenticateRequest, provider ProviderID) (token Token, err error) {
	startedAt := e.now()
	fields := map[string]any{"provider": provider}
	defer func() {
		e.observeOperation(ctx, startedAt, "authenticate", err, fields)
	}()

	adapter, err := e.resolveAdapter(provider)
	if err != nil {
		err = e.mapError(err)
		return Token{}, err
	}
	if err = e.gateCall(ctx, provider, "authenticate"); err != nil {
		return Token{}, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	token, err = adapter.Authenticate(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "authenticate", err)
		return Token{}, err
	}
	return token, nil
}

func (e *Engine) ExchangeCode(ctx context.Context, req ExchangeCodeRequest, provider ProviderID) (token Token, err error) {
	startedAt := e.now()
	fields := map[string]any{"provider": provider}
	defer func() {
		e.observeOperation(ctx, startedAt, "exchange_code", err, fields)
	}()

	if strings.TrimSpace(req.Code) == "" {
		err = e.mapError(NewBadInputError("authorization code is required"))
		return Token{}, err
	}
	adapter, err := e.resolveAdapter(provider)
	if err != nil {
		err = e.mapError(err)
		return Token{}, err
	}
	if err = e.gateCall(ctx, provider, "exchange_code"); err != nil {
		return Token{}, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	token, err = adapter.ExchangeCode(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "exchange_code", err)
		return Token{}, err
	}
	return token, nil
}

func (e *Engine) GetInstitutions(ctx context.Context, req InstitutionsRequest, provider ProviderID) (institutions []Institution, err error) {
	startedAt := e.now()
	fields := map[string]any{"provider": provider, "country": req.Country}
	defer func() {
		e.observeOperation(ctx, startedAt, "get_institutions", err, fields)
	}()

	adapter, err := e.resolveAdapter(provider)
	if err != nil {
		err = e.mapError(err)
		return nil, err
	}
	if err = e.gateCall(ctx, provider, "get_institutions"); err != nil {
		return nil, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	institutions, err = adapter.GetInstitutions(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "get_institutions", err)
		return nil, err
	}

	if e.institutions != nil {
		for _, institution := range institutions {
			if _, upsertErr := e.institutions.Upsert(ctx, institution); upsertErr != nil {
				e.logError(ctx, "institution upsert failed", map[string]any{
					"provider":       provider,
					"institution_id": institution.ID,
					"error":          upsertErr.Error(),
				})
			}
		}
	}
	return institutions, nil
}

func (e *Engine) GetAccounts(ctx context.Context, req AccountsRequest) (report FetchReport, err error) {
	startedAt := e.now()
	fields := map[string]any{
		"provider":   req.Provider,
		"session_id": req.SessionID,
	}
	defer func() {
		fields["accounts"] = len(report.Accounts)
		fields["failed"] = len(report.Failed)
		e.observeOperation(ctx, startedAt, "get_accounts", err, fields)
	}()

	adapter, err := e.resolveAdapter(req.Provider)
	if err != nil {
		err = e.mapError(err)
		return FetchReport{}, err
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		err = e.mapError(NewAuthenticationError("access token is required", nil))
		return FetchReport{}, err
	}
	if err = e.gateCall(ctx, req.Provider, "get_accounts"); err != nil {
		return FetchReport{}, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	report, err = adapter.GetAccounts(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "get_accounts", err)
		return FetchReport{}, err
	}

	e.emitEvent(ctx, DomainEvent{
		Name:       EventSyncCompleted,
		Provider:   req.Provider,
		SessionID:  req.SessionID,
		AccountIDs: accountIDs(report.Accounts),
		Metadata: map[string]any{
			"accounts": len(report.Accounts),
			"failed":   len(report.Failed),
		},
	})
	e.requestEnrichment(ctx, req.Provider, req.SessionID, report)

	return report, nil
}

func (e *Engine) GetAccountDetails(ctx context.Context, req AccountRequest) (account Account, err error) {
	startedAt := e.now()
	fields := map[string]any{"provider": req.Provider, "account_id": req.AccountID}
	defer func() {
		e.observeOperation(ctx, startedAt, "get_account_details", err, fields)
	}()

	adapter, err := e.resolveAdapter(req.Provider)
	if err != nil {
		err = e.mapError(err)
		return Account{}, err
	}
	if err = e.gateCall(ctx, req.Provider, "get_account_details"); err != nil {
		return Account{}, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	account, err = adapter.GetAccountDetails(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "get_account_details", err)
		return Account{}, err
	}
	return account, nil
}

func (e *Engine) GetAccountBalance(ctx context.Context, req AccountRequest) (balance Balance, err error) {
	startedAt := e.now()
	fields := map[string]any{"provider": req.Provider, "account_id": req.AccountID}
	defer func() {
		e.observeOperation(ctx, startedAt, "get_account_balance", err, fields)
	}()

	adapter, err := e.resolveAdapter(req.Provider)
	if err != nil {
		err = e.mapError(err)
		return Balance{}, err
	}
	if err = e.gateCall(ctx, req.Provider, "get_account_balance"); err != nil {
		return Balance{}, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	balance, err = adapter.GetAccountBalance(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "get_account_balance", err)
		return Balance{}, err
	}
	return balance, nil
}

func (e *Engine) GetTransactions(ctx context.Context, req TransactionsRequest) (transactions []Transaction, err error) {
	startedAt := e.now()
	fields := map[string]any{
		"provider":   req.Provider,
		"account_id": req.AccountID,
		"latest":     req.Latest,
	}
	defer func() {
		fields["transactions"] = len(transactions)
		e.observeOperation(ctx, startedAt, "get_transactions", err, fields)
	}()

	adapter, err := e.resolveAdapter(req.Provider)
	if err != nil {
		err = e.mapError(err)
		return nil, err
	}
	if err = e.gateCall(ctx, req.Provider, "get_transactions"); err != nil {
		return nil, err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	transactions, err = adapter.GetTransactions(callCtx, req)
	if err != nil {
		err = e.finishRequest(callCtx, "get_transactions", err)
		return nil, err
	}
	return FilterBooked(transactions), nil
}

func (e *Engine) DeleteConnection(ctx context.Context, req DeleteConnectionRequest) (err error) {
	startedAt := e.now()
	fields := map[string]any{"provider": req.Provider, "account_id": req.AccountID}
	defer func() {
		e.observeOperation(ctx, startedAt, "delete_connection", err, fields)
	}()

	adapter, err := e.resolveAdapter(req.Provider)
	if err != nil {
		err = e.mapError(err)
		return err
	}
	if err = e.gateCall(ctx, req.Provider, "delete_connection"); err != nil {
		return err
	}

	callCtx, cancel := e.requestContext(ctx)
	defer cancel()

	if err = adapter.DeleteConnection(callCtx, req); err != nil {
		err = e.finishRequest(callCtx, "delete_connection", err)
		return err
	}

	e.emitEvent(ctx, DomainEvent{
		Name:     EventConnectionDeleted,
		Provider: req.Provider,
		Metadata: map[string]any{"account_id": req.AccountID},
	})
	return nil
}

// HealthCheck probes every registered adapter. It never fails; unhealthy
// backends surface as Healthy=false entries.
func (e *Engine) HealthCheck(ctx context.Context) []HealthStatus {
	if e == nil || e.registry == nil {
		return nil
	}
	adapters := e.registry.List()
	statuses := make([]HealthStatus, 0, len(adapters))
	for _, adapter := range adapters {
		statuses = append(statuses, adapter.HealthCheck(ctx))
	}
	return statuses
}

func (e *Engine) emitEvent(ctx context.Context, event DomainEvent) {
	if e == nil || e.eventSink == nil {
		return
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	if err := e.eventSink.Record(ctx, event); err != nil {
		e.logError(ctx, "domain event record failed", map[string]any{
			"event":    event.Name,
			"provider": event.Provider,
			"error":    err.Error(),
		})
	}
}

// requestEnrichment hands the freshly synced account set to the job queue.
// Enqueue failures are logged and swallowed; the sync already succeeded.
func (e *Engine) requestEnrichment(ctx context.Context, provider ProviderID, sessionID string, report FetchReport) {
	if e == nil || e.enqueuer == nil || len(report.Accounts) == 0 {
		return
	}
	msg := &JobExecutionMessage{
		JobID: EventEnrichmentRequested,
		Parameters: map[string]any{
			"provider":    string(provider),
			"session_id":  sessionID,
			"account_ids": accountIDs(report.Accounts),
		},
		IdempotencyKey: string(provider) + ":" + sessionID,
	}
	if err := e.enqueuer.Enqueue(ctx, msg); err != nil {
		e.logError(ctx, "enrichment enqueue failed", map[string]any{
			"provider":   provider,
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func accountIDs(accounts []Account) []string {
	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	return ids
}
