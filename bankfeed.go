package bankfeed

import "github.com/goliatone/go-bankfeed/core"

type Config = core.Config

type OrchestratorConfig = core.OrchestratorConfig

type Option = core.Option

type Engine = core.Engine

type EngineDependencies = core.EngineDependencies

type ProviderID = core.ProviderID

type BankAdapter = core.BankAdapter
type Registry = core.Registry
type InstitutionStore = core.InstitutionStore
type EventSink = core.EventSink
type JobEnqueuer = core.JobEnqueuer
type TransportAdapter = core.TransportAdapter
type RateLimitPolicy = core.RateLimitPolicy

type Token = core.Token
type Account = core.Account
type Balance = core.Balance
type Transaction = core.Transaction
type Institution = core.Institution
type FetchReport = core.FetchReport
type FetchOutcome = core.FetchOutcome
type HealthStatus = core.HealthStatus
type DomainEvent = core.DomainEvent

type AuthenticateRequest = core.AuthenticateRequest
type ExchangeCodeRequest = core.ExchangeCodeRequest
type InstitutionsRequest = core.InstitutionsRequest
type AccountsRequest = core.AccountsRequest
type AccountRequest = core.AccountRequest
type TransactionsRequest = core.TransactionsRequest
type DeleteConnectionRequest = core.DeleteConnectionRequest

const (
	ProviderPlaid         = core.ProviderPlaid
	ProviderTeller        = core.ProviderTeller
	ProviderGoCardless    = core.ProviderGoCardless
	ProviderEnableBanking = core.ProviderEnableBanking
)

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorFactory     = core.WithErrorFactory
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithRegistry         = core.WithRegistry
	WithRateLimitPolicy  = core.WithRateLimitPolicy
	WithInstitutionStore = core.WithInstitutionStore
	WithEventSink        = core.WithEventSink
	WithEnqueuer         = core.WithEnqueuer
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	return core.NewEngine(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Engine, error) {
	return core.Setup(cfg, opts...)
}
