package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[AuthenticateMessage]     = (*AuthenticateCommand)(nil)
	_ gocmd.Commander[ExchangeCodeMessage]     = (*ExchangeCodeCommand)(nil)
	_ gocmd.Commander[SyncAccountsMessage]     = (*SyncAccountsCommand)(nil)
	_ gocmd.Commander[DeleteConnectionMessage] = (*DeleteConnectionCommand)(nil)
)
