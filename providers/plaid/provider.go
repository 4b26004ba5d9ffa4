package plaid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers"
)

const (
	BaseURL = "https://sandbox.plaid.com"

	LatestWindow = 5 * 24 * time.Hour

	// FullHistoryWindow bounds the open-ended fetch; the API insists on a
	// start date.
	FullHistoryWindow = 2 * 365 * 24 * time.Hour
)

type Config struct {
	BaseURL      string
	ClientID     string
	Secret       string
	ClientName   string
	CountryCodes []string
	Now          func() time.Time
}

// Adapter talks to the Plaid API. Credentials ride as static headers on every
// request; a connection is an item whose access token comes out of the
// public-token exchange.
type Adapter struct {
	client       *providers.Client
	clientName   string
	countryCodes []string
	now          func() time.Time
}

func New(cfg Config, transport core.TransportAdapter) (*Adapter, error) {
	if transport == nil {
		return nil, fmt.Errorf("plaid: transport is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = BaseURL
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.Secret)
	if clientID == "" || secret == "" {
		return nil, fmt.Errorf("plaid: client id and secret are required")
	}
	clientName := strings.TrimSpace(cfg.ClientName)
	if clientName == "" {
		clientName = "bankfeed"
	}
	countryCodes := cfg.CountryCodes
	if len(countryCodes) == 0 {
		countryCodes = []string{"US"}
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	client := providers.NewClient(core.ProviderPlaid, baseURL, transport)
	client.DefaultHeaders["Accept"] = "application/json"
	client.DefaultHeaders["PLAID-CLIENT-ID"] = clientID
	client.DefaultHeaders["PLAID-SECRET"] = secret

	return &Adapter{
		client:       client,
		clientName:   clientName,
		countryCodes: countryCodes,
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
	return core.ProviderPlaid
}

// Authenticate creates a Link token for the front-end flow. The real access
// token only exists after ExchangeCode.
func (a *Adapter) Authenticate(ctx context.Context, _ core.AuthenticateRequest) (core.Token, error) {
	var res linkTokenResponse
	err := a.client.PostJSON(ctx, "authenticate", "/link/token/create", linkTokenRequest{
		User:         linkTokenUser{ClientUserID: uuid.NewString()},
		ClientName:   a.clientName,
		Products:     []string{"transactions"},
		CountryCodes: a.countryCodes,
		Language:     "en",
	}, nil, &res)
	if err != nil {
		return core.Token{}, err
	}
	token := core.Token{AccessToken: res.LinkToken, TokenType: "LinkToken"}
	if expiry, parseErr := time.Parse(time.RFC3339, res.Expiration); parseErr == nil {
		token.ExpiresAt = &expiry
	}
	return token, nil
}

func (a *Adapter) ExchangeCode(ctx context.Context, req core.ExchangeCodeRequest) (core.Token, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return core.Token{}, core.NewBadInputError("public token is required")
	}
	var res exchangeResponse
	if err := a.client.PostJSON(ctx, "exchange_code", "/item/public_token/exchange", exchangeRequest{PublicToken: code}, nil, &res); err != nil {
		return core.Token{}, err
	}
	if strings.TrimSpace(res.AccessToken) == "" {
		return core.Token{}, core.NewProviderError(core.ProviderPlaid, "", "token exchange returned no access token", nil)
	}
	return core.Token{AccessToken: res.AccessToken, TokenType: "Bearer"}, nil
}

func (a *Adapter) GetInstitutions(ctx context.Context, req core.InstitutionsRequest) ([]core.Institution, error) {
	payload := institutionsRequest{Count: 500}
	if country := strings.TrimSpace(req.Country); country != "" {
		payload.Options.CountryCodes = []string{strings.ToUpper(country)}
	} else {
		payload.Options.CountryCodes = a.countryCodes
	}

	var res institutionsResponse
	if err := a.client.PostJSON(ctx, "get_institutions", "/institutions/get", payload, nil, &res); err != nil {
		return nil, err
	}
	institutions := make([]core.Institution, 0, len(res.Institutions))
	for _, entry := range res.Institutions {
		institutions = append(institutions, toInstitution(entry))
	}
	return institutions, nil
}

// GetAccounts is a single round trip: the listing already carries both the
// detail and the balances, so no per-account fan-out is needed.
func (a *Adapter) GetAccounts(ctx context.Context, req core.AccountsRequest) (core.FetchReport, error) {
	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		return core.FetchReport{}, core.NewAuthenticationError("access token is required", nil)
	}
	var res accountsResponse
	if err := a.client.PostJSON(ctx, "get_accounts", "/accounts/get", accountsRequest{AccessToken: accessToken}, nil, &res); err != nil {
		return core.FetchReport{}, err
	}
	accounts := make([]core.Account, 0, len(res.Accounts))
	for _, entry := range res.Accounts {
		accounts = append(accounts, toAccount(entry, res.Item.InstitutionID))
	}
	return core.FetchReport{Accounts: accounts}, nil
}

func (a *Adapter) GetAccountDetails(ctx context.Context, req core.AccountRequest) (core.Account, error) {
	account, _, err := a.findAccount(ctx, req)
	return account, err
}

func (a *Adapter) GetAccountBalance(ctx context.Context, req core.AccountRequest) (core.Balance, error) {
	account, _, err := a.findAccount(ctx, req)
	if err != nil {
		return core.Balance{}, err
	}
	return account.Balance, nil
}

func (a *Adapter) findAccount(ctx context.Context, req core.AccountRequest) (core.Account, accountsResponse, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return core.Account{}, accountsResponse{}, core.NewBadInputError("account id is required")
	}
	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		return core.Account{}, accountsResponse{}, core.NewAuthenticationError("access token is required", nil)
	}
	var res accountsResponse
	if err := a.client.PostJSON(ctx, "get_account_details", "/accounts/get", accountsRequest{AccessToken: accessToken}, nil, &res); err != nil {
		return core.Account{}, accountsResponse{}, err
	}
	for _, entry := range res.Accounts {
		if strings.TrimSpace(entry.AccountID) == accountID {
			return toAccount(entry, res.Item.InstitutionID), res, nil
		}
	}
	return core.Account{}, res, core.NewProviderError(core.ProviderPlaid, "", "account "+accountID+" is not part of this item", nil)
}

func (a *Adapter) GetTransactions(ctx context.Context, req core.TransactionsRequest) ([]core.Transaction, error) {
	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		return nil, core.NewAuthenticationError("access token is required", nil)
	}

	window := FullHistoryWindow
	if req.Latest {
		window = LatestWindow
	}
	now := a.now()
	payload := transactionsRequest{
		AccessToken: accessToken,
		StartDate:   formatDate(now.Add(-window)),
		EndDate:     formatDate(now),
	}
	if accountID := strings.TrimSpace(req.AccountID); accountID != "" {
		payload.Options.AccountIDs = []string{accountID}
	}

	var res transactionsResponse
	if err := a.client.PostJSON(ctx, "get_transactions", "/transactions/get", payload, nil, &res); err != nil {
		return nil, err
	}
	transactions := make([]core.Transaction, 0, len(res.Transactions))
	for _, entry := range res.Transactions {
		tx, err := toTransaction(entry)
		if err != nil {
			return nil, core.NewProviderError(core.ProviderPlaid, "", "transaction payload is malformed", err)
		}
		transactions = append(transactions, tx)
	}
	return providers.BookedOnly(transactions), nil
}

func (a *Adapter) DeleteConnection(ctx context.Context, req core.DeleteConnectionRequest) error {
	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		return core.NewAuthenticationError("access token is required", nil)
	}
	var res removeResponse
	if err := a.client.PostJSON(ctx, "delete_connection", "/item/remove", removeRequest{AccessToken: accessToken}, nil, &res); err != nil {
		return err
	}
	if !res.Removed {
		return core.NewProviderError(core.ProviderPlaid, "", "item removal was not confirmed", nil)
	}
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) core.HealthStatus {
	var res institutionsResponse
	err := a.client.PostJSON(ctx, "health_check", "/institutions/get", institutionsRequest{
		Count:   1,
		Options: institutionOptions{CountryCodes: a.countryCodes},
	}, nil, &res)
	return core.HealthStatus{Provider: core.ProviderPlaid, Healthy: err == nil}
}

var _ core.BankAdapter = (*Adapter)(nil)
