package gocommand

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-bankfeed/command"
	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/query"
)

type emptyTypeMessage struct{}

func (emptyTypeMessage) Type() string { return "" }

func TestValidateMessageContract(t *testing.T) {
	valid := command.SyncAccountsMessage{
		Request: core.AccountsRequest{Provider: core.ProviderPlaid, AccessToken: "tok"},
	}
	if err := ValidateMessageContract(valid); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(emptyTypeMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	missingToken := command.SyncAccountsMessage{
		Request: core.AccountsRequest{Provider: core.ProviderPlaid},
	}
	if err := ValidateMessageContract(missingToken); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestSubscribeEngineRoutesCommandsAndQueries(t *testing.T) {
	mutating := &stubMutatingService{}
	read := &stubReadService{
		balance: core.Balance{Amount: decimal.RequireFromString("310.02"), Currency: "EUR"},
	}

	set, err := SubscribeEngine(mutating, read)
	if err != nil {
		t.Fatalf("subscribe engine: %v", err)
	}
	defer set.Unsubscribe()
	if set.Len() != 9 {
		t.Fatalf("expected 9 subscriptions, got %d", set.Len())
	}

	msg := command.SyncAccountsMessage{
		Request: core.AccountsRequest{Provider: core.ProviderGoCardless, AccessToken: "tok"},
	}
	if err := Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch sync: %v", err)
	}
	if mutating.syncCalls != 1 {
		t.Fatalf("expected one sync call, got %d", mutating.syncCalls)
	}

	balance, err := Query[query.GetAccountBalanceMessage, core.Balance](context.Background(), query.GetAccountBalanceMessage{
		Request: core.AccountRequest{Provider: core.ProviderGoCardless, AccessToken: "tok", AccountID: "acc-1"},
	})
	if err != nil {
		t.Fatalf("query balance: %v", err)
	}
	if !balance.Amount.Equal(decimal.RequireFromString("310.02")) {
		t.Fatalf("expected routed balance, got %s", balance.Amount)
	}
}

func TestSubscribeEngineRequiresBothServices(t *testing.T) {
	if _, err := SubscribeEngine(nil, &stubReadService{}); err == nil {
		t.Fatalf("expected mutating service to be required")
	}
	if _, err := SubscribeEngine(&stubMutatingService{}, nil); err == nil {
		t.Fatalf("expected read service to be required")
	}
}

func TestRegisterEngineAndResolvers(t *testing.T) {
	adapter := NewRegistryAdapter(gocmd.NewRegistry())
	if err := RegisterEngine(adapter, &stubMutatingService{}, &stubReadService{}); err != nil {
		t.Fatalf("register engine: %v", err)
	}

	resolverCalls := 0
	if err := adapter.AddResolver("custom", func(any, gocmd.CommandMeta, *gocmd.Registry) error {
		resolverCalls++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if resolverCalls == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}
}

func TestUnsubscribeClearsTheSet(t *testing.T) {
	set, err := SubscribeEngine(&stubMutatingService{}, &stubReadService{})
	if err != nil {
		t.Fatalf("subscribe engine: %v", err)
	}
	set.Unsubscribe()
	if set.Len() != 0 {
		t.Fatalf("expected empty set after unsubscribe, got %d", set.Len())
	}
}

type stubMutatingService struct {
	syncCalls int
}

func (s *stubMutatingService) Authenticate(context.Context, core.AuthenticateRequest, core.ProviderID) (core.Token, error) {
	return core.Token{AccessToken: "issued"}, nil
}

func (s *stubMutatingService) ExchangeCode(context.Context, core.ExchangeCodeRequest, core.ProviderID) (core.Token, error) {
	return core.Token{AccessToken: "exchanged"}, nil
}

func (s *stubMutatingService) GetAccounts(context.Context, core.AccountsRequest) (core.FetchReport, error) {
	s.syncCalls++
	return core.FetchReport{}, nil
}

func (s *stubMutatingService) DeleteConnection(context.Context, core.DeleteConnectionRequest) error {
	return nil
}

type stubReadService struct {
	balance core.Balance
}

func (s *stubReadService) GetAccountDetails(context.Context, core.AccountRequest) (core.Account, error) {
	return core.Account{}, nil
}

func (s *stubReadService) GetAccountBalance(context.Context, core.AccountRequest) (core.Balance, error) {
	return s.balance, nil
}

func (s *stubReadService) GetTransactions(context.Context, core.TransactionsRequest) ([]core.Transaction, error) {
	return nil, nil
}

func (s *stubReadService) GetInstitutions(context.Context, core.InstitutionsRequest, core.ProviderID) ([]core.Institution, error) {
	return nil, nil
}

func (s *stubReadService) HealthCheck(context.Context) []core.HealthStatus {
	return nil
}
