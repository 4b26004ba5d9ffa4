package gocardless

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/fetch"
	"github.com/goliatone/go-bankfeed/providers"
)

const (
	BaseURL = "https://bankaccountdata.gocardless.com"

	// LatestWindow is the trailing slice requested when the caller only
	// wants recent activity.
	LatestWindow = 5 * 24 * time.Hour
)

type Config struct {
	BaseURL   string
	SecretID  string
	SecretKey string
	Fetch     core.OrchestratorConfig
	Now       func() time.Time
}

// Adapter talks to the GoCardless bank account data API. A connection is a
// requisition: the session id on every request names one, and its account
// list drives the per-account fan-out.
type Adapter struct {
	client       *providers.Client
	orchestrator *fetch.Orchestrator
	secretID     string
	secretKey    string
	now          func() time.Time
}

func New(cfg Config, transport core.TransportAdapter) (*Adapter, error) {
	if transport == nil {
		return nil, fmt.Errorf("gocardless: transport is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = BaseURL
	}
	secretID := strings.TrimSpace(cfg.SecretID)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretID == "" || secretKey == "" {
		return nil, fmt.Errorf("gocardless: secret id and secret key are required")
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	client := providers.NewClient(core.ProviderGoCardless, baseURL, transport)
	client.DefaultHeaders["Accept"] = "application/json"

	return &Adapter{
		client:       client,
		orchestrator: fetch.NewOrchestrator(cfg.Fetch),
		secretID:     secretID,
		secretKey:    secretKey,
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
	return core.ProviderGoCardless
}

// Authenticate exchanges the configured secret pair for a short-lived access
// token. Tokens are not cached here; callers own the lifetime.
func (a *Adapter) Authenticate(ctx context.Context, _ core.AuthenticateRequest) (core.Token, error) {
	var res tokenResponse
	err := a.client.PostJSON(ctx, "authenticate", "/api/v2/token/new/", map[string]string{
		"secret_id":  a.secretID,
		"secret_key": a.secretKey,
	}, nil, &res)
	if err != nil {
		return core.Token{}, err
	}
	if strings.TrimSpace(res.Access) == "" {
		return core.Token{}, core.NewAuthenticationError("token exchange returned no access token", nil)
	}

	token := core.Token{AccessToken: res.Access, TokenType: "Bearer"}
	if res.AccessExpires > 0 {
		expiresAt := a.now().Add(time.Duration(res.AccessExpires) * time.Second)
		token.ExpiresAt = &expiresAt
	}
	return token, nil
}

// ExchangeCode is not part of this provider's flow: consent rides on the
// requisition the caller created out of band.
func (a *Adapter) ExchangeCode(context.Context, core.ExchangeCodeRequest) (core.Token, error) {
	return core.Token{}, core.NewBadInputError("gocardless connections use requisitions, not authorization codes")
}

func (a *Adapter) GetInstitutions(ctx context.Context, req core.InstitutionsRequest) ([]core.Institution, error) {
	query := map[string]string{}
	if country := strings.TrimSpace(req.Country); country != "" {
		query["country"] = strings.ToUpper(country)
	}
	var res []institutionResponse
	if err := a.client.GetJSON(ctx, "get_institutions", "/api/v2/institutions/", query, nil, &res); err != nil {
		return nil, err
	}
	institutions := make([]core.Institution, 0, len(res))
	for _, item := range res {
		institutions = append(institutions, toInstitution(item))
	}
	return institutions, nil
}

// GetAccounts resolves the requisition's account ids and fans a detail and
// balance pair out per account through the orchestrator.
func (a *Adapter) GetAccounts(ctx context.Context, req core.AccountsRequest) (core.FetchReport, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return core.FetchReport{}, core.NewBadInputError("requisition id is required")
	}
	headers := bearerHeaders(req.AccessToken)

	var requisition requisitionResponse
	if err := a.client.GetJSON(ctx, "get_requisition", "/api/v2/requisitions/"+sessionID+"/", nil, headers, &requisition); err != nil {
		return core.FetchReport{}, err
	}

	tasks := make([]fetch.Task, 0, len(requisition.Accounts))
	for _, accountID := range requisition.Accounts {
		accountID := strings.TrimSpace(accountID)
		if accountID == "" {
			continue
		}
		tasks = append(tasks, fetch.PairTask(accountID,
			func(ctx context.Context) (core.Account, error) {
				return a.fetchDetails(ctx, accountID, headers)
			},
			func(ctx context.Context) (core.Balance, error) {
				return a.fetchBalance(ctx, accountID, headers)
			},
		))
	}
	return a.orchestrator.Run(ctx, core.ProviderGoCardless, sessionID, tasks)
}

func (a *Adapter) GetAccountDetails(ctx context.Context, req core.AccountRequest) (core.Account, error) {
	return a.fetchDetails(ctx, strings.TrimSpace(req.AccountID), bearerHeaders(req.AccessToken))
}

func (a *Adapter) GetAccountBalance(ctx context.Context, req core.AccountRequest) (core.Balance, error) {
	return a.fetchBalance(ctx, strings.TrimSpace(req.AccountID), bearerHeaders(req.AccessToken))
}

func (a *Adapter) fetchDetails(ctx context.Context, accountID string, headers map[string]string) (core.Account, error) {
	if accountID == "" {
		return core.Account{}, core.NewBadInputError("account id is required")
	}
	var res accountDetailsResponse
	if err := a.client.GetJSON(ctx, "get_account_details", "/api/v2/accounts/"+accountID+"/details/", nil, headers, &res); err != nil {
		return core.Account{}, err
	}
	return toAccount(accountID, res), nil
}

func (a *Adapter) fetchBalance(ctx context.Context, accountID string, headers map[string]string) (core.Balance, error) {
	if accountID == "" {
		return core.Balance{}, core.NewBadInputError("account id is required")
	}
	var res balancesResponse
	if err := a.client.GetJSON(ctx, "get_account_balance", "/api/v2/accounts/"+accountID+"/balances/", nil, headers, &res); err != nil {
		return core.Balance{}, err
	}
	balances, err := toBalances(res)
	if err != nil {
		return core.Balance{}, core.NewProviderError(core.ProviderGoCardless, "", "balance payload is malformed", err)
	}
	return core.SelectRepresentativeBalance(balances)
}

func (a *Adapter) GetTransactions(ctx context.Context, req core.TransactionsRequest) ([]core.Transaction, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, core.NewBadInputError("account id is required")
	}
	query := map[string]string{}
	if req.Latest {
		query["date_from"] = a.now().Add(-LatestWindow).Format("2006-01-02")
	}
	var res transactionsResponse
	if err := a.client.GetJSON(ctx, "get_transactions", "/api/v2/accounts/"+accountID+"/transactions/", query, bearerHeaders(req.AccessToken), &res); err != nil {
		return nil, err
	}
	transactions, err := toTransactions(res)
	if err != nil {
		return nil, core.NewProviderError(core.ProviderGoCardless, "", "transaction payload is malformed", err)
	}
	return providers.BookedOnly(transactions), nil
}

func (a *Adapter) DeleteConnection(ctx context.Context, req core.DeleteConnectionRequest) error {
	requisitionID := strings.TrimSpace(req.AccountID)
	if requisitionID == "" {
		return core.NewBadInputError("requisition id is required")
	}
	return a.client.Delete(ctx, "delete_connection", "/api/v2/requisitions/"+requisitionID+"/", bearerHeaders(req.AccessToken))
}

func (a *Adapter) HealthCheck(ctx context.Context) core.HealthStatus {
	res, err := a.client.Do(ctx, "health_check", core.TransportRequest{
		Method: "GET",
		URL:    "/api/v2/institutions/",
		Query:  map[string]string{"country": "GB"},
	})
	healthy := err == nil && res.StatusCode < 500
	if err != nil && res.StatusCode >= 400 && res.StatusCode < 500 {
		// Reachable but unauthenticated still counts as alive.
		healthy = true
	}
	return core.HealthStatus{Provider: core.ProviderGoCardless, Healthy: healthy}
}

func bearerHeaders(accessToken string) map[string]string {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

var _ core.BankAdapter = (*Adapter)(nil)
