package bankfeed

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-bankfeed/core"
)

func TestNewFacadeRequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected nil service to fail")
	}
}

func TestFacadeBuildsFullHandlerSurface(t *testing.T) {
	service := &facadeStubService{
		balance: core.Balance{Amount: decimal.RequireFromString("42.00"), Currency: "USD"},
	}
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Authenticate == nil || commands.ExchangeCode == nil ||
		commands.SyncAccounts == nil || commands.DeleteConnection == nil {
		t.Fatalf("expected every command handler to be built")
	}
	queries := facade.Queries()
	if queries.AccountDetails == nil || queries.AccountBalance == nil ||
		queries.Transactions == nil || queries.Institutions == nil || queries.Health == nil {
		t.Fatalf("expected every query handler to be built")
	}
	if facade.Service() == nil {
		t.Fatalf("expected facade to expose its service")
	}
}

func TestFacadeSatisfiedByEngine(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := NewFacade(engine); err != nil {
		t.Fatalf("expected engine to satisfy the facade contract: %v", err)
	}
}

var _ CommandQueryService = (*facadeStubService)(nil)

type facadeStubService struct {
	balance core.Balance
}

func (s *facadeStubService) Authenticate(context.Context, core.AuthenticateRequest, core.ProviderID) (core.Token, error) {
	return core.Token{}, nil
}

func (s *facadeStubService) ExchangeCode(context.Context, core.ExchangeCodeRequest, core.ProviderID) (core.Token, error) {
	return core.Token{}, nil
}

func (s *facadeStubService) GetAccounts(context.Context, core.AccountsRequest) (core.FetchReport, error) {
	return core.FetchReport{}, nil
}

func (s *facadeStubService) DeleteConnection(context.Context, core.DeleteConnectionRequest) error {
	return nil
}

func (s *facadeStubService) GetAccountDetails(context.Context, core.AccountRequest) (core.Account, error) {
	return core.Account{}, nil
}

func (s *facadeStubService) GetAccountBalance(context.Context, core.AccountRequest) (core.Balance, error) {
	return s.balance, nil
}

func (s *facadeStubService) GetTransactions(context.Context, core.TransactionsRequest) ([]core.Transaction, error) {
	return nil, nil
}

func (s *facadeStubService) GetInstitutions(context.Context, core.InstitutionsRequest, core.ProviderID) ([]core.Institution, error) {
	return nil, nil
}

func (s *facadeStubService) HealthCheck(context.Context) []core.HealthStatus {
	return nil
}
