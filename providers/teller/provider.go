package teller

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/fetch"
	"github.com/goliatone/go-bankfeed/providers"
)

const (
	BaseURL = "https://api.teller.io"

	LatestWindow = 5 * 24 * time.Hour
)

type Config struct {
	BaseURL string
	Fetch   core.OrchestratorConfig
	Now     func() time.Time
}

// Adapter talks to the Teller API over the client-certificate transport it
// requires. The enrollment access token travels as the basic-auth username
// with an empty password; there is no token exchange on this side, Teller
// Connect hands the token straight to the caller.
type Adapter struct {
	client       *providers.Client
	orchestrator *fetch.Orchestrator
	now          func() time.Time
}

func New(cfg Config, transport core.TransportAdapter) (*Adapter, error) {
	if transport == nil {
		return nil, fmt.Errorf("teller: transport is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = BaseURL
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	client := providers.NewClient(core.ProviderTeller, baseURL, transport)
	client.DefaultHeaders["Accept"] = "application/json"

	return &Adapter{
		client:       client,
		orchestrator: fetch.NewOrchestrator(cfg.Fetch),
		now:          now,
	}, nil
}

func (a *Adapter) WithRateLimit(policy core.RateLimitPolicy) *Adapter {
	if a != nil && a.client != nil {
		a.client.RateLimit = policy
	}
	return a
}

func (*Adapter) ID() core.ProviderID {
	return core.ProviderTeller
}

// Authenticate has nothing to do here: enrollment happens entirely inside
// Teller Connect, which hands the caller the access token.
func (*Adapter) Authenticate(context.Context, core.AuthenticateRequest) (core.Token, error) {
	return core.Token{}, core.NewBadInputError("teller issues access tokens through Teller Connect enrollment")
}

func (*Adapter) ExchangeCode(context.Context, core.ExchangeCodeRequest) (core.Token, error) {
	return core.Token{}, core.NewBadInputError("teller does not exchange authorization codes; use the enrollment access token")
}

func (a *Adapter) GetInstitutions(ctx context.Context, _ core.InstitutionsRequest) ([]core.Institution, error) {
	var entries []institutionEntry
	if err := a.client.GetJSON(ctx, "get_institutions", "/institutions", nil, nil, &entries); err != nil {
		return nil, err
	}
	institutions := make([]core.Institution, 0, len(entries))
	for _, entry := range entries {
		institutions = append(institutions, core.Institution{
			ID:       strings.TrimSpace(entry.ID),
			Name:     strings.TrimSpace(entry.Name),
			Country:  "US",
			Provider: core.ProviderTeller,
		})
	}
	return institutions, nil
}

// GetAccounts lists the enrollment's accounts, then fans balance lookups out
// through the orchestrator. The listing already carries the account detail,
// so only the balance half goes back over the wire.
func (a *Adapter) GetAccounts(ctx context.Context, req core.AccountsRequest) (core.FetchReport, error) {
	headers, err := basicHeaders(req.AccessToken)
	if err != nil {
		return core.FetchReport{}, err
	}

	var entries []accountEntry
	if err := a.client.GetJSON(ctx, "get_accounts", "/accounts", nil, headers, &entries); err != nil {
		return core.FetchReport{}, err
	}

	tasks := make([]fetch.Task, 0, len(entries))
	for _, entry := range entries {
		entry := entry
		tasks = append(tasks, fetch.PairTask(entry.ID,
			func(context.Context) (core.Account, error) {
				return toAccount(entry), nil
			},
			func(ctx context.Context) (core.Balance, error) {
				return a.fetchBalance(ctx, headers, entry.ID, entry.Currency)
			},
		))
	}
	return a.orchestrator.Run(ctx, core.ProviderTeller, strings.TrimSpace(req.SessionID), tasks)
}

func (a *Adapter) GetAccountDetails(ctx context.Context, req core.AccountRequest) (core.Account, error) {
	headers, err := basicHeaders(req.AccessToken)
	if err != nil {
		return core.Account{}, err
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return core.Account{}, core.NewBadInputError("account id is required")
	}
	var entry accountEntry
	if err := a.client.GetJSON(ctx, "get_account_details", "/accounts/"+accountID, nil, headers, &entry); err != nil {
		return core.Account{}, err
	}
	return toAccount(entry), nil
}

func (a *Adapter) GetAccountBalance(ctx context.Context, req core.AccountRequest) (core.Balance, error) {
	headers, err := basicHeaders(req.AccessToken)
	if err != nil {
		return core.Balance{}, err
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return core.Balance{}, core.NewBadInputError("account id is required")
	}
	return a.fetchBalance(ctx, headers, accountID, "")
}

func (a *Adapter) fetchBalance(ctx context.Context, headers map[string]string, accountID string, currency string) (core.Balance, error) {
	var res balanceResponse
	if err := a.client.GetJSON(ctx, "get_account_balance", "/accounts/"+accountID+"/balances", nil, headers, &res); err != nil {
		return core.Balance{}, err
	}
	balances, err := toBalances(res, strings.ToUpper(strings.TrimSpace(currency)))
	if err != nil {
		return core.Balance{}, core.NewProviderError(core.ProviderTeller, "", "balance payload is malformed", err)
	}
	return core.SelectRepresentativeBalance(balances)
}

// GetTransactions fetches the account ledger. Teller has no server-side date
// window, so the trailing five-day slice is cut here.
func (a *Adapter) GetTransactions(ctx context.Context, req core.TransactionsRequest) ([]core.Transaction, error) {
	headers, err := basicHeaders(req.AccessToken)
	if err != nil {
		return nil, err
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, core.NewBadInputError("account id is required")
	}

	var entries []transactionEntry
	if err := a.client.GetJSON(ctx, "get_transactions", "/accounts/"+accountID+"/transactions", nil, headers, &entries); err != nil {
		return nil, err
	}

	cutoff := time.Time{}
	if req.Latest {
		cutoff = a.now().Add(-LatestWindow)
	}
	transactions := make([]core.Transaction, 0, len(entries))
	for _, entry := range entries {
		tx, err := toTransaction(entry)
		if err != nil {
			return nil, core.NewProviderError(core.ProviderTeller, "", "transaction payload is malformed", err)
		}
		if !cutoff.IsZero() && tx.Date.Before(cutoff) {
			continue
		}
		transactions = append(transactions, tx)
	}
	return providers.BookedOnly(transactions), nil
}

func (a *Adapter) DeleteConnection(ctx context.Context, req core.DeleteConnectionRequest) error {
	headers, err := basicHeaders(req.AccessToken)
	if err != nil {
		return err
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return core.NewBadInputError("account id is required")
	}
	return a.client.Delete(ctx, "delete_connection", "/accounts/"+accountID, headers)
}

func (a *Adapter) HealthCheck(ctx context.Context) core.HealthStatus {
	res, err := a.client.Do(ctx, "health_check", core.TransportRequest{
		Method: "GET",
		URL:    "/institutions",
	})
	healthy := err == nil && res.StatusCode < 500
	if err != nil && res.StatusCode >= 400 && res.StatusCode < 500 {
		// Reachable but unauthenticated still counts as alive.
		healthy = true
	}
	return core.HealthStatus{Provider: core.ProviderTeller, Healthy: healthy}
}

func basicHeaders(accessToken string) (map[string]string, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, core.NewAuthenticationError("access token is required", nil)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(token + ":"))
	return map[string]string{"Authorization": "Basic " + credentials}, nil
}

var _ core.BankAdapter = (*Adapter)(nil)
