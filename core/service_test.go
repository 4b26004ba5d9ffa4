package core

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func newTestEngine(t *testing.T, adapters []*fakeAdapter, options ...Option) *Engine {
	t.Helper()
	registry := NewAdapterRegistry()
	for _, adapter := range adapters {
		if err := registry.Register(adapter); err != nil {
			t.Fatalf("register adapter: %v", err)
		}
	}
	engine, err := NewEngine(Config{}, append([]Option{WithRegistry(registry)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_UnsupportedProvider(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.GetAccounts(context.Background(), AccountsRequest{
		Provider:    "monzo",
		AccessToken: "tok",
	})
	if err == nil {
		t.Fatalf("expected unsupported provider error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ErrorCodeUnsupportedProvider {
		t.Fatalf("expected unsupported provider code, got %q", richErr.TextCode)
	}
}

func TestEngine_RegisteredButUnknownCasingResolves(t *testing.T) {
	adapter := &fakeAdapter{id: ProviderPlaid, healthy: true}
	engine := newTestEngine(t, []*fakeAdapter{adapter})

	_, err := engine.GetAccounts(context.Background(), AccountsRequest{
		Provider:    "Plaid",
		AccessToken: "tok",
	})
	if err != nil {
		t.Fatalf("expected case-insensitive resolution, got %v", err)
	}
}

func TestEngine_GetAccountsRequiresAccessToken(t *testing.T) {
	engine := newTestEngine(t, []*fakeAdapter{{id: ProviderGoCardless}})

	_, err := engine.GetAccounts(context.Background(), AccountsRequest{Provider: ProviderGoCardless})
	if err == nil {
		t.Fatalf("expected authentication error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ErrorCodeAuthentication {
		t.Fatalf("expected authentication code, got %q", richErr.TextCode)
	}
}

func TestEngine_GetAccountsEmitsSyncEventAndEnqueuesEnrichment(t *testing.T) {
	adapter := &fakeAdapter{
		id: ProviderGoCardless,
		accountsFn: func(context.Context, AccountsRequest) (FetchReport, error) {
			return FetchReport{
				Accounts: []Account{{ID: "acc-1"}, {ID: "acc-2"}},
				Failed:   []FetchOutcome{{AccountID: "acc-3", Err: stderrors.New("boom")}},
			}, nil
		},
	}
	sink := &recordingEventSink{}
	queue := &recordingEnqueuer{}
	engine := newTestEngine(t, []*fakeAdapter{adapter}, WithEventSink(sink), WithEnqueuer(queue))

	report, err := engine.GetAccounts(context.Background(), AccountsRequest{
		Provider:    ProviderGoCardless,
		AccessToken: "tok",
		SessionID:   "req-9",
	})
	if err != nil {
		t.Fatalf("get accounts: %v", err)
	}
	if len(report.Accounts) != 2 || len(report.Failed) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected one domain event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.Name != EventSyncCompleted {
		t.Fatalf("expected sync completed event, got %q", event.Name)
	}
	if event.Provider != ProviderGoCardless || event.SessionID != "req-9" {
		t.Fatalf("unexpected event scope: %+v", event)
	}
	if event.ID == "" || event.OccurredAt.IsZero() {
		t.Fatalf("expected populated event identity: %+v", event)
	}

	if len(queue.messages) != 1 {
		t.Fatalf("expected one enrichment message, got %d", len(queue.messages))
	}
	msg := queue.messages[0]
	if msg.JobID != EventEnrichmentRequested {
		t.Fatalf("expected enrichment job id, got %q", msg.JobID)
	}
	if msg.IdempotencyKey != "gocardless:req-9" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}
}

func TestEngine_EnqueueFailureDoesNotFailSync(t *testing.T) {
	adapter := &fakeAdapter{
		id: ProviderTeller,
		accountsFn: func(context.Context, AccountsRequest) (FetchReport, error) {
			return FetchReport{Accounts: []Account{{ID: "acc-1"}}}, nil
		},
	}
	queue := &recordingEnqueuer{err: stderrors.New("queue down")}
	engine := newTestEngine(t, []*fakeAdapter{adapter}, WithEnqueuer(queue))

	if _, err := engine.GetAccounts(context.Background(), AccountsRequest{
		Provider:    ProviderTeller,
		AccessToken: "tok",
		SessionID:   "enr-1",
	}); err != nil {
		t.Fatalf("sync should survive enqueue failure, got %v", err)
	}
}

func TestEngine_RequestDeadlineBecomesTimeoutError(t *testing.T) {
	adapter := &fakeAdapter{
		id: ProviderEnableBanking,
		accountsFn: func(ctx context.Context, _ AccountsRequest) (FetchReport, error) {
			<-ctx.Done()
			return FetchReport{}, ctx.Err()
		},
	}
	engine := newTestEngine(t, []*fakeAdapter{adapter})
	engine.config.Fetch.RequestTimeout = 20 * time.Millisecond

	_, err := engine.GetAccounts(context.Background(), AccountsRequest{
		Provider:    ProviderEnableBanking,
		AccessToken: "tok",
	})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ErrorCodeTimeout {
		t.Fatalf("expected timeout code, got %q", richErr.TextCode)
	}
}

func TestEngine_GetTransactionsFiltersPending(t *testing.T) {
	adapter := &fakeAdapter{
		id: ProviderGoCardless,
		transactionsFn: func(context.Context, TransactionsRequest) ([]Transaction, error) {
			return []Transaction{
				{ID: "t1", Status: TransactionStatusBooked},
				{ID: "t2", Status: TransactionStatusPending},
			}, nil
		},
	}
	engine := newTestEngine(t, []*fakeAdapter{adapter})

	transactions, err := engine.GetTransactions(context.Background(), TransactionsRequest{
		Provider:    ProviderGoCardless,
		AccessToken: "tok",
		AccountID:   "acc-1",
	})
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if len(transactions) != 1 || transactions[0].ID != "t1" {
		t.Fatalf("expected pending dropped, got %+v", transactions)
	}
}

func TestEngine_GetInstitutionsUpsertsIntoStore(t *testing.T) {
	adapter := &fakeAdapter{
		id: ProviderEnableBanking,
		institutionsFn: func(context.Context, InstitutionsRequest) ([]Institution, error) {
			return []Institution{
				{ID: "aspsp-1", Name: "Nordic Bank", Country: "FI", Provider: ProviderEnableBanking},
			}, nil
		},
	}
	store := newMemoryInstitutionStore()
	engine := newTestEngine(t, []*fakeAdapter{adapter}, WithInstitutionStore(store))

	institutions, err := engine.GetInstitutions(context.Background(), InstitutionsRequest{Country: "FI"}, ProviderEnableBanking)
	if err != nil {
		t.Fatalf("get institutions: %v", err)
	}
	if len(institutions) != 1 {
		t.Fatalf("expected one institution, got %d", len(institutions))
	}
	stored, err := store.Get(context.Background(), ProviderEnableBanking, "aspsp-1")
	if err != nil {
		t.Fatalf("expected institution upserted: %v", err)
	}
	if stored.Name != "Nordic Bank" {
		t.Fatalf("unexpected stored institution: %+v", stored)
	}
}

func TestEngine_DeleteConnectionEmitsEvent(t *testing.T) {
	adapter := &fakeAdapter{id: ProviderTeller}
	sink := &recordingEventSink{}
	engine := newTestEngine(t, []*fakeAdapter{adapter}, WithEventSink(sink))

	if err := engine.DeleteConnection(context.Background(), DeleteConnectionRequest{
		Provider:    ProviderTeller,
		AccessToken: "tok",
		AccountID:   "acc-1",
	}); err != nil {
		t.Fatalf("delete connection: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Name != EventConnectionDeleted {
		t.Fatalf("expected connection deleted event, got %+v", sink.events)
	}
}

func TestEngine_HealthCheckCoversAllAdapters(t *testing.T) {
	engine := newTestEngine(t, []*fakeAdapter{
		{id: ProviderPlaid, healthy: true},
		{id: ProviderTeller, healthy: false},
	})

	statuses := engine.HealthCheck(context.Background())
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	byProvider := map[ProviderID]bool{}
	for _, status := range statuses {
		byProvider[status.Provider] = status.Healthy
	}
	if !byProvider[ProviderPlaid] || byProvider[ProviderTeller] {
		t.Fatalf("unexpected health map: %v", byProvider)
	}
}

func TestEngine_ConfigResolutionAppliesDefaults(t *testing.T) {
	engine, err := NewEngine(Config{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	cfg := engine.Config()
	if cfg.Fetch.MaxConcurrent != 2 {
		t.Fatalf("expected default max concurrent 2, got %d", cfg.Fetch.MaxConcurrent)
	}
	if cfg.Fetch.ItemTimeout != 8*time.Second {
		t.Fatalf("expected default item timeout 8s, got %s", cfg.Fetch.ItemTimeout)
	}
	if cfg.Fetch.RequestTimeout != 28*time.Second {
		t.Fatalf("expected default request timeout 28s, got %s", cfg.Fetch.RequestTimeout)
	}
	if cfg.EnableBanking.TokenTTL != 20*time.Hour {
		t.Fatalf("expected default token ttl 20h, got %s", cfg.EnableBanking.TokenTTL)
	}
}

func TestEngine_RuntimeConfigOverridesDefaults(t *testing.T) {
	engine, err := NewEngine(Config{
		ServiceName: "bankfeed-test",
		Fetch:       OrchestratorConfig{MaxConcurrent: 4, ItemTimeout: time.Second, RequestTimeout: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	cfg := engine.Config()
	if cfg.ServiceName != "bankfeed-test" {
		t.Fatalf("expected runtime service name, got %q", cfg.ServiceName)
	}
	if cfg.Fetch.MaxConcurrent != 4 {
		t.Fatalf("expected runtime max concurrent, got %d", cfg.Fetch.MaxConcurrent)
	}
}
