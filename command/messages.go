package command

import (
	"strings"

	"github.com/goliatone/go-bankfeed/core"
)

const (
	TypeAuthenticate     = "bankfeed.command.authenticate"
	TypeExchangeCode     = "bankfeed.command.code.exchange"
	TypeSyncAccounts     = "bankfeed.command.accounts.sync"
	TypeDeleteConnection = "bankfeed.command.connection.delete"
)

type AuthenticateMessage struct {
	Provider core.ProviderID
	Request  core.AuthenticateRequest
}

func (AuthenticateMessage) Type() string { return TypeAuthenticate }

func (m AuthenticateMessage) Validate() error {
	if strings.TrimSpace(string(m.Provider)) == "" {
		return commandValidationError("provider", "provider is required")
	}
	return nil
}

type ExchangeCodeMessage struct {
	Provider core.ProviderID
	Request  core.ExchangeCodeRequest
}

func (ExchangeCodeMessage) Type() string { return TypeExchangeCode }

func (m ExchangeCodeMessage) Validate() error {
	if strings.TrimSpace(string(m.Provider)) == "" {
		return commandValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	return nil
}

// SyncAccountsMessage drives the multi-account fetch. It is a command, not a
// query: a successful sync emits domain events and may enqueue enrichment.
type SyncAccountsMessage struct {
	Request core.AccountsRequest
}

func (SyncAccountsMessage) Type() string { return TypeSyncAccounts }

func (m SyncAccountsMessage) Validate() error {
	if strings.TrimSpace(string(m.Request.Provider)) == "" {
		return commandValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Request.AccessToken) == "" {
		return commandValidationError("access_token", "access token is required")
	}
	return nil
}

type DeleteConnectionMessage struct {
	Request core.DeleteConnectionRequest
}

func (DeleteConnectionMessage) Type() string { return TypeDeleteConnection }

func (m DeleteConnectionMessage) Validate() error {
	if strings.TrimSpace(string(m.Request.Provider)) == "" {
		return commandValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Request.AccessToken) == "" && strings.TrimSpace(m.Request.AccountID) == "" {
		return commandValidationError("access_token", "an access token or account id is required")
	}
	return nil
}
