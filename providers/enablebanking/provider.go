package enablebanking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/auth"
	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/fetch"
	"github.com/goliatone/go-bankfeed/providers"
)

const (
	BaseURL = "https://api.enablebanking.com"

	LatestWindow = 5 * 24 * time.Hour
)

type Config struct {
	BaseURL       string
	ApplicationID string
	PrivateKey    string
	TokenTTL      time.Duration
	Fetch         core.OrchestratorConfig
	Now           func() time.Time
}

// Adapter talks to the Enable Banking aggregation gateway. Every outbound
// call carries a freshly minted RS256 assertion; nothing token-shaped is
// cached between calls. A connection is an authorization session whose
// account list drives the fan-out.
type Adapter struct {
	client       *providers.Client
	orchestrator *fetch.Orchestrator
	assertions   *auth.AssertionBuilder
	now          func() time.Time
}

func New(cfg Config, transport core.TransportAdapter) (*Adapter, error) {
	if transport == nil {
		return nil, fmt.Errorf("enablebanking: transport is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = BaseURL
	}
	applicationID := strings.TrimSpace(cfg.ApplicationID)
	if applicationID == "" {
		return nil, fmt.Errorf("enablebanking: application id is required")
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	builder, err := auth.NewAssertionBuilder(auth.AssertionConfig{
		Issuer:     "enablebanking.com",
		Audience:   "api.enablebanking.com",
		KeyID:      applicationID,
		PrivateKey: cfg.PrivateKey,
		TokenTTL:   cfg.TokenTTL,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	client := providers.NewClient(core.ProviderEnableBanking, baseURL, transport)
	client.DefaultHeaders["Accept"] = "application/json"

	return &Adapter{
		client:       client,
		orchestrator: fetch.NewOrchestrator(cfg.Fetch),
		assertions:   builder,
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
	return core.ProviderEnableBanking
}

func (a *Adapter) signedHeaders(ctx context.Context) (map[string]string, error) {
	token, err := a.assertions.Build(ctx)
	if err != nil {
		return nil, core.NewAuthenticationError("assertion signing failed", err)
	}
	return map[string]string{"Authorization": "Bearer " + token.AccessToken}, nil
}

// Authenticate proves the registered application key works by reading the
// application resource with a fresh assertion, then hands that assertion
// back as the session token.
func (a *Adapter) Authenticate(ctx context.Context, _ core.AuthenticateRequest) (core.Token, error) {
	token, err := a.assertions.Build(ctx)
	if err != nil {
		return core.Token{}, core.NewAuthenticationError("assertion signing failed", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + token.AccessToken}

	var app applicationResponse
	if err := a.client.GetJSON(ctx, "authenticate", "/application", nil, headers, &app); err != nil {
		return core.Token{}, err
	}
	if !app.Active {
		return core.Token{}, core.NewAuthenticationError("application is not active", nil)
	}
	return token, nil
}

// ExchangeCode turns a completed end-user authorization into a session. The
// session id is the access token for everything that follows.
func (a *Adapter) ExchangeCode(ctx context.Context, req core.ExchangeCodeRequest) (core.Token, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return core.Token{}, core.NewBadInputError("authorization code is required")
	}
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return core.Token{}, err
	}

	var session sessionResponse
	if err := a.client.PostJSON(ctx, "exchange_code", "/sessions", map[string]string{"code": code}, headers, &session); err != nil {
		return core.Token{}, err
	}
	if strings.TrimSpace(session.SessionID) == "" {
		return core.Token{}, core.NewProviderError(core.ProviderEnableBanking, "", "session creation returned no session id", nil)
	}
	return core.Token{AccessToken: session.SessionID, TokenType: "Session"}, nil
}

func (a *Adapter) GetInstitutions(ctx context.Context, req core.InstitutionsRequest) ([]core.Institution, error) {
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return nil, err
	}
	query := map[string]string{}
	if country := strings.TrimSpace(req.Country); country != "" {
		query["country"] = strings.ToUpper(country)
	}

	var res aspspsResponse
	if err := a.client.GetJSON(ctx, "get_institutions", "/aspsps", query, headers, &res); err != nil {
		return nil, err
	}
	institutions := make([]core.Institution, 0, len(res.ASPSPs))
	for _, item := range res.ASPSPs {
		institutions = append(institutions, toInstitution(item))
	}
	return institutions, nil
}

// GetAccounts reads the session's account list and fans detail+balance pairs
// out through the orchestrator.
func (a *Adapter) GetAccounts(ctx context.Context, req core.AccountsRequest) (core.FetchReport, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = strings.TrimSpace(req.AccessToken)
	}
	if sessionID == "" {
		return core.FetchReport{}, core.NewBadInputError("session id is required")
	}
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return core.FetchReport{}, err
	}

	var session sessionResponse
	if err := a.client.GetJSON(ctx, "get_session", "/sessions/"+sessionID, nil, headers, &session); err != nil {
		return core.FetchReport{}, err
	}

	tasks := make([]fetch.Task, 0, len(session.Accounts))
	for _, accountID := range session.Accounts {
		accountID := strings.TrimSpace(accountID)
		if accountID == "" {
			continue
		}
		tasks = append(tasks, fetch.PairTask(accountID,
			func(ctx context.Context) (core.Account, error) {
				return a.fetchDetails(ctx, accountID)
			},
			func(ctx context.Context) (core.Balance, error) {
				return a.fetchBalance(ctx, accountID)
			},
		))
	}
	return a.orchestrator.Run(ctx, core.ProviderEnableBanking, sessionID, tasks)
}

func (a *Adapter) GetAccountDetails(ctx context.Context, req core.AccountRequest) (core.Account, error) {
	return a.fetchDetails(ctx, strings.TrimSpace(req.AccountID))
}

func (a *Adapter) GetAccountBalance(ctx context.Context, req core.AccountRequest) (core.Balance, error) {
	return a.fetchBalance(ctx, strings.TrimSpace(req.AccountID))
}

func (a *Adapter) fetchDetails(ctx context.Context, accountID string) (core.Account, error) {
	if accountID == "" {
		return core.Account{}, core.NewBadInputError("account id is required")
	}
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return core.Account{}, err
	}
	var res accountDetailsResponse
	if err := a.client.GetJSON(ctx, "get_account_details", "/accounts/"+accountID+"/details", nil, headers, &res); err != nil {
		return core.Account{}, err
	}
	return toAccount(accountID, res), nil
}

func (a *Adapter) fetchBalance(ctx context.Context, accountID string) (core.Balance, error) {
	if accountID == "" {
		return core.Balance{}, core.NewBadInputError("account id is required")
	}
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return core.Balance{}, err
	}
	var res balancesResponse
	if err := a.client.GetJSON(ctx, "get_account_balance", "/accounts/"+accountID+"/balances", nil, headers, &res); err != nil {
		return core.Balance{}, err
	}
	balances, err := toBalances(res)
	if err != nil {
		return core.Balance{}, core.NewProviderError(core.ProviderEnableBanking, "", "balance payload is malformed", err)
	}
	return core.SelectRepresentativeBalance(balances)
}

func (a *Adapter) GetTransactions(ctx context.Context, req core.TransactionsRequest) ([]core.Transaction, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, core.NewBadInputError("account id is required")
	}
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return nil, err
	}
	query := map[string]string{}
	if req.Latest {
		query["date_from"] = a.now().Add(-LatestWindow).Format("2006-01-02")
	}

	var res transactionsResponse
	if err := a.client.GetJSON(ctx, "get_transactions", "/accounts/"+accountID+"/transactions", query, headers, &res); err != nil {
		return nil, err
	}
	transactions, err := toTransactions(res)
	if err != nil {
		return nil, core.NewProviderError(core.ProviderEnableBanking, "", "transaction payload is malformed", err)
	}
	return providers.BookedOnly(transactions), nil
}

func (a *Adapter) DeleteConnection(ctx context.Context, req core.DeleteConnectionRequest) error {
	sessionID := strings.TrimSpace(req.AccessToken)
	if sessionID == "" {
		sessionID = strings.TrimSpace(req.AccountID)
	}
	if sessionID == "" {
		return core.NewBadInputError("session id is required")
	}
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return err
	}
	return a.client.Delete(ctx, "delete_connection", "/sessions/"+sessionID, headers)
}

func (a *Adapter) HealthCheck(ctx context.Context) core.HealthStatus {
	headers, err := a.signedHeaders(ctx)
	if err != nil {
		return core.HealthStatus{Provider: core.ProviderEnableBanking}
	}
	var app applicationResponse
	fetchErr := a.client.GetJSON(ctx, "health_check", "/application", nil, headers, &app)
	return core.HealthStatus{
		Provider: core.ProviderEnableBanking,
		Healthy:  fetchErr == nil && app.Active,
	}
}

var _ core.BankAdapter = (*Adapter)(nil)
