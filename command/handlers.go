package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-bankfeed/core"
)

// MutatingService is the slice of the engine the commands drive: operations
// that touch provider state or emit domain events.
type MutatingService interface {
	Authenticate(ctx context.Context, req core.AuthenticateRequest, provider core.ProviderID) (core.Token, error)
	ExchangeCode(ctx context.Context, req core.ExchangeCodeRequest, provider core.ProviderID) (core.Token, error)
	GetAccounts(ctx context.Context, req core.AccountsRequest) (core.FetchReport, error)
	DeleteConnection(ctx context.Context, req core.DeleteConnectionRequest) error
}

type AuthenticateCommand struct {
	service MutatingService
}

func NewAuthenticateCommand(service MutatingService) *AuthenticateCommand {
	return &AuthenticateCommand{service: service}
}

func (c *AuthenticateCommand) Execute(ctx context.Context, msg AuthenticateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authenticate service is required")
	}
	token, err := c.service.Authenticate(ctx, msg.Request, msg.Provider)
	if err != nil {
		return err
	}
	storeResult(ctx, token)
	return nil
}

type ExchangeCodeCommand struct {
	service MutatingService
}

func NewExchangeCodeCommand(service MutatingService) *ExchangeCodeCommand {
	return &ExchangeCodeCommand{service: service}
}

func (c *ExchangeCodeCommand) Execute(ctx context.Context, msg ExchangeCodeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: exchange service is required")
	}
	token, err := c.service.ExchangeCode(ctx, msg.Request, msg.Provider)
	if err != nil {
		return err
	}
	storeResult(ctx, token)
	return nil
}

type SyncAccountsCommand struct {
	service MutatingService
}

func NewSyncAccountsCommand(service MutatingService) *SyncAccountsCommand {
	return &SyncAccountsCommand{service: service}
}

func (c *SyncAccountsCommand) Execute(ctx context.Context, msg SyncAccountsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sync service is required")
	}
	report, err := c.service.GetAccounts(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, report)
	return nil
}

type DeleteConnectionCommand struct {
	service MutatingService
}

func NewDeleteConnectionCommand(service MutatingService) *DeleteConnectionCommand {
	return &DeleteConnectionCommand{service: service}
}

func (c *DeleteConnectionCommand) Execute(ctx context.Context, msg DeleteConnectionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: delete service is required")
	}
	return c.service.DeleteConnection(ctx, msg.Request)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
