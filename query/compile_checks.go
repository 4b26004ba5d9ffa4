package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-bankfeed/core"
)

var (
	_ gocmd.Querier[GetAccountDetailsMessage, core.Account]      = (*GetAccountDetailsQuery)(nil)
	_ gocmd.Querier[GetAccountBalanceMessage, core.Balance]      = (*GetAccountBalanceQuery)(nil)
	_ gocmd.Querier[GetTransactionsMessage, []core.Transaction]  = (*GetTransactionsQuery)(nil)
	_ gocmd.Querier[ListInstitutionsMessage, []core.Institution] = (*ListInstitutionsQuery)(nil)
	_ gocmd.Querier[HealthMessage, []core.HealthStatus]          = (*HealthQuery)(nil)
)
