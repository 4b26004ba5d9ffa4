package core

import (
	"context"
	"time"
)

type fakeAdapter struct {
	id ProviderID

	authenticateFn   func(ctx context.Context, req AuthenticateRequest) (Token, error)
	exchangeCodeFn   func(ctx context.Context, req ExchangeCodeRequest) (Token, error)
	institutionsFn   func(ctx context.Context, req InstitutionsRequest) ([]Institution, error)
	accountsFn       func(ctx context.Context, req AccountsRequest) (FetchReport, error)
	accountDetailsFn func(ctx context.Context, req AccountRequest) (Account, error)
	accountBalanceFn func(ctx context.Context, req AccountRequest) (Balance, error)
	transactionsFn   func(ctx context.Context, req TransactionsRequest) ([]Transaction, error)
	deleteFn         func(ctx context.Context, req DeleteConnectionRequest) error
	healthy          bool
}

func (f *fakeAdapter) ID() ProviderID { return f.id }

func (f *fakeAdapter) Authenticate(ctx context.Context, req AuthenticateRequest) (Token, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, req)
	}
	return Token{AccessToken: "token-" + string(f.id)}, nil
}

func (f *fakeAdapter) ExchangeCode(ctx context.Context, req ExchangeCodeRequest) (Token, error) {
	if f.exchangeCodeFn != nil {
		return f.exchangeCodeFn(ctx, req)
	}
	return Token{AccessToken: "exchanged-" + req.Code}, nil
}

func (f *fakeAdapter) GetInstitutions(ctx context.Context, req InstitutionsRequest) ([]Institution, error) {
	if f.institutionsFn != nil {
		return f.institutionsFn(ctx, req)
	}
	return nil, nil
}

func (f *fakeAdapter) GetAccounts(ctx context.Context, req AccountsRequest) (FetchReport, error) {
	if f.accountsFn != nil {
		return f.accountsFn(ctx, req)
	}
	return FetchReport{}, nil
}

func (f *fakeAdapter) GetAccountDetails(ctx context.Context, req AccountRequest) (Account, error) {
	if f.accountDetailsFn != nil {
		return f.accountDetailsFn(ctx, req)
	}
	return Account{ID: req.AccountID, Provider: f.id}, nil
}

func (f *fakeAdapter) GetAccountBalance(ctx context.Context, req AccountRequest) (Balance, error) {
	if f.accountBalanceFn != nil {
		return f.accountBalanceFn(ctx, req)
	}
	return Balance{Currency: "EUR", AsOf: time.Now().UTC()}, nil
}

func (f *fakeAdapter) GetTransactions(ctx context.Context, req TransactionsRequest) ([]Transaction, error) {
	if f.transactionsFn != nil {
		return f.transactionsFn(ctx, req)
	}
	return nil, nil
}

func (f *fakeAdapter) DeleteConnection(ctx context.Context, req DeleteConnectionRequest) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, req)
	}
	return nil
}

func (f *fakeAdapter) HealthCheck(context.Context) HealthStatus {
	return HealthStatus{Provider: f.id, Healthy: f.healthy}
}

var _ BankAdapter = (*fakeAdapter)(nil)

type recordingEventSink struct {
	events []DomainEvent
	err    error
}

func (s *recordingEventSink) Record(_ context.Context, event DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type recordingEnqueuer struct {
	messages []*JobExecutionMessage
	err      error
}

func (q *recordingEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, msg)
	return nil
}

type memoryInstitutionStore struct {
	byKey map[string]Institution
}

func newMemoryInstitutionStore() *memoryInstitutionStore {
	return &memoryInstitutionStore{byKey: map[string]Institution{}}
}

func (s *memoryInstitutionStore) key(provider ProviderID, id string) string {
	return string(provider) + "/" + id
}

func (s *memoryInstitutionStore) Get(_ context.Context, provider ProviderID, id string) (Institution, error) {
	institution, ok := s.byKey[s.key(provider, id)]
	if !ok {
		return Institution{}, ErrUnknownProvider
	}
	return institution, nil
}

func (s *memoryInstitutionStore) Upsert(_ context.Context, institution Institution) (Institution, error) {
	s.byKey[s.key(institution.Provider, institution.ID)] = institution
	return institution, nil
}

func (s *memoryInstitutionStore) ListByProvider(_ context.Context, provider ProviderID) ([]Institution, error) {
	out := []Institution{}
	for _, institution := range s.byKey {
		if institution.Provider == provider {
			out = append(out, institution)
		}
	}
	return out, nil
}
