package bankfeed

import (
	"fmt"

	bankfeedcommand "github.com/goliatone/go-bankfeed/command"
	bankfeedquery "github.com/goliatone/go-bankfeed/query"
)

// CommandQueryService is the full engine surface the message handlers need.
// *core.Engine satisfies it; so does any decorated engine.
type CommandQueryService interface {
	bankfeedcommand.MutatingService
	bankfeedquery.ReadService
}

type Commands struct {
	Authenticate     *bankfeedcommand.AuthenticateCommand
	ExchangeCode     *bankfeedcommand.ExchangeCodeCommand
	SyncAccounts     *bankfeedcommand.SyncAccountsCommand
	DeleteConnection *bankfeedcommand.DeleteConnectionCommand
}

type Queries struct {
	AccountDetails *bankfeedquery.GetAccountDetailsQuery
	AccountBalance *bankfeedquery.GetAccountBalanceQuery
	Transactions   *bankfeedquery.GetTransactionsQuery
	Institutions   *bankfeedquery.ListInstitutionsQuery
	Health         *bankfeedquery.HealthQuery
}

// Facade bundles every message handler built over one engine so callers wire
// the whole surface at once instead of constructing handlers piecemeal.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("bankfeed: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Authenticate:     bankfeedcommand.NewAuthenticateCommand(service),
		ExchangeCode:     bankfeedcommand.NewExchangeCodeCommand(service),
		SyncAccounts:     bankfeedcommand.NewSyncAccountsCommand(service),
		DeleteConnection: bankfeedcommand.NewDeleteConnectionCommand(service),
	}
	facade.queries = Queries{
		AccountDetails: bankfeedquery.NewGetAccountDetailsQuery(service),
		AccountBalance: bankfeedquery.NewGetAccountBalanceQuery(service),
		Transactions:   bankfeedquery.NewGetTransactionsQuery(service),
		Institutions:   bankfeedquery.NewListInstitutionsQuery(service),
		Health:         bankfeedquery.NewHealthQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
