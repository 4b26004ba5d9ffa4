package query

import (
	"context"

	"github.com/goliatone/go-bankfeed/core"
)

// ReadService is the read-only slice of the engine the queries expose.
type ReadService interface {
	GetAccountDetails(ctx context.Context, req core.AccountRequest) (core.Account, error)
	GetAccountBalance(ctx context.Context, req core.AccountRequest) (core.Balance, error)
	GetTransactions(ctx context.Context, req core.TransactionsRequest) ([]core.Transaction, error)
	GetInstitutions(ctx context.Context, req core.InstitutionsRequest, provider core.ProviderID) ([]core.Institution, error)
	HealthCheck(ctx context.Context) []core.HealthStatus
}

type GetAccountDetailsQuery struct {
	service ReadService
}

func NewGetAccountDetailsQuery(service ReadService) *GetAccountDetailsQuery {
	return &GetAccountDetailsQuery{service: service}
}

func (q *GetAccountDetailsQuery) Query(ctx context.Context, msg GetAccountDetailsMessage) (core.Account, error) {
	if q == nil || q.service == nil {
		return core.Account{}, queryDependencyError("query: account service is required")
	}
	return q.service.GetAccountDetails(ctx, msg.Request)
}

type GetAccountBalanceQuery struct {
	service ReadService
}

func NewGetAccountBalanceQuery(service ReadService) *GetAccountBalanceQuery {
	return &GetAccountBalanceQuery{service: service}
}

func (q *GetAccountBalanceQuery) Query(ctx context.Context, msg GetAccountBalanceMessage) (core.Balance, error) {
	if q == nil || q.service == nil {
		return core.Balance{}, queryDependencyError("query: balance service is required")
	}
	return q.service.GetAccountBalance(ctx, msg.Request)
}

type GetTransactionsQuery struct {
	service ReadService
}

func NewGetTransactionsQuery(service ReadService) *GetTransactionsQuery {
	return &GetTransactionsQuery{service: service}
}

func (q *GetTransactionsQuery) Query(ctx context.Context, msg GetTransactionsMessage) ([]core.Transaction, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: transactions service is required")
	}
	return q.service.GetTransactions(ctx, msg.Request)
}

type ListInstitutionsQuery struct {
	service ReadService
}

func NewListInstitutionsQuery(service ReadService) *ListInstitutionsQuery {
	return &ListInstitutionsQuery{service: service}
}

func (q *ListInstitutionsQuery) Query(ctx context.Context, msg ListInstitutionsMessage) ([]core.Institution, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: institutions service is required")
	}
	return q.service.GetInstitutions(ctx, msg.Request, msg.Provider)
}

type HealthQuery struct {
	service ReadService
}

func NewHealthQuery(service ReadService) *HealthQuery {
	return &HealthQuery{service: service}
}

func (q *HealthQuery) Query(ctx context.Context, _ HealthMessage) ([]core.HealthStatus, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: health service is required")
	}
	return q.service.HealthCheck(ctx), nil
}
