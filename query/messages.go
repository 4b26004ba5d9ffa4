package query

import (
	"strings"

	"github.com/goliatone/go-bankfeed/core"
)

const (
	TypeGetAccountDetails = "bankfeed.query.account.details"
	TypeGetAccountBalance = "bankfeed.query.account.balance"
	TypeGetTransactions   = "bankfeed.query.transactions.list"
	TypeListInstitutions  = "bankfeed.query.institutions.list"
	TypeHealth            = "bankfeed.query.health"
)

type GetAccountDetailsMessage struct {
	Request core.AccountRequest
}

func (GetAccountDetailsMessage) Type() string { return TypeGetAccountDetails }

func (m GetAccountDetailsMessage) Validate() error {
	if strings.TrimSpace(string(m.Request.Provider)) == "" {
		return queryValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Request.AccountID) == "" {
		return queryValidationError("account_id", "account id is required")
	}
	return nil
}

type GetAccountBalanceMessage struct {
	Request core.AccountRequest
}

func (GetAccountBalanceMessage) Type() string { return TypeGetAccountBalance }

func (m GetAccountBalanceMessage) Validate() error {
	if strings.TrimSpace(string(m.Request.Provider)) == "" {
		return queryValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Request.AccountID) == "" {
		return queryValidationError("account_id", "account id is required")
	}
	return nil
}

type GetTransactionsMessage struct {
	Request core.TransactionsRequest
}

func (GetTransactionsMessage) Type() string { return TypeGetTransactions }

func (m GetTransactionsMessage) Validate() error {
	if strings.TrimSpace(string(m.Request.Provider)) == "" {
		return queryValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Request.AccountID) == "" {
		return queryValidationError("account_id", "account id is required")
	}
	return nil
}

type ListInstitutionsMessage struct {
	Provider core.ProviderID
	Request  core.InstitutionsRequest
}

func (ListInstitutionsMessage) Type() string { return TypeListInstitutions }

func (m ListInstitutionsMessage) Validate() error {
	if strings.TrimSpace(string(m.Provider)) == "" {
		return queryValidationError("provider", "provider is required")
	}
	return nil
}

type HealthMessage struct{}

func (HealthMessage) Type() string { return TypeHealth }

func (HealthMessage) Validate() error { return nil }
