package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type AuthenticateRequest struct {
	Metadata map[string]any
}

type ExchangeCodeRequest struct {
	Code        string
	RedirectURI string
}

type InstitutionsRequest struct {
	Country string
}

// AccountsRequest drives the multi-account fetch. SessionID carries whatever
// the provider uses to scope a connection: a Plaid item, a Teller enrollment,
// a GoCardless requisition, an Enable Banking session.
type AccountsRequest struct {
	Provider      ProviderID
	AccessToken   string
	InstitutionID string
	SessionID     string
}

type AccountRequest struct {
	Provider    ProviderID
	AccessToken string
	AccountID   string
}

type TransactionsRequest struct {
	Provider    ProviderID
	AccessToken string
	AccountID   string
	// Latest restricts retrieval to the trailing five-day window; otherwise
	// the provider's longest-available strategy is requested.
	Latest bool
}

type DeleteConnectionRequest struct {
	Provider    ProviderID
	AccessToken string
	AccountID   string
}

// BankAdapter is the shared capability set every backend adapter implements.
// Variants differ in auth style, session model, and transaction windowing,
// never in this surface.
type BankAdapter interface {
	ID() ProviderID

	Authenticate(ctx context.Context, req AuthenticateRequest) (Token, error)
	ExchangeCode(ctx context.Context, req ExchangeCodeRequest) (Token, error)
	GetInstitutions(ctx context.Context, req InstitutionsRequest) ([]Institution, error)
	GetAccounts(ctx context.Context, req AccountsRequest) (FetchReport, error)
	GetAccountDetails(ctx context.Context, req AccountRequest) (Account, error)
	GetAccountBalance(ctx context.Context, req AccountRequest) (Balance, error)
	GetTransactions(ctx context.Context, req TransactionsRequest) ([]Transaction, error)
	DeleteConnection(ctx context.Context, req DeleteConnectionRequest) error
	HealthCheck(ctx context.Context) HealthStatus
}

type Registry interface {
	Register(adapter BankAdapter) error
	Get(provider ProviderID) (BankAdapter, bool)
	List() []BankAdapter
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	Idempotency          string
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// InstitutionStore is the injected key-value capability for institution
// metadata lookups. The engine treats it as a dependency, not an owned store.
type InstitutionStore interface {
	Get(ctx context.Context, provider ProviderID, id string) (Institution, error)
	Upsert(ctx context.Context, institution Institution) (Institution, error)
	ListByProvider(ctx context.Context, provider ProviderID) ([]Institution, error)
}

type RateLimitKey struct {
	Provider  ProviderID
	Operation string
}

type ProviderResponseMeta struct {
	StatusCode int
	Headers    map[string]string
	RetryAfter *time.Duration
	Metadata   map[string]any
}

// RateLimitPolicy gates outbound provider calls. BeforeCall never blocks and
// never retries; it either admits the call or fails it.
type RateLimitPolicy interface {
	BeforeCall(ctx context.Context, key RateLimitKey) error
	AfterCall(ctx context.Context, key RateLimitKey, res ProviderResponseMeta) error
}

type Signer interface {
	Sign(ctx context.Context, req *http.Request, token Token) error
}

type EventSink interface {
	Record(ctx context.Context, event DomainEvent) error
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
