package plaid

type linkTokenRequest struct {
	User         linkTokenUser `json:"user"`
	ClientName   string        `json:"client_name"`
	Products     []string      `json:"products"`
	CountryCodes []string      `json:"country_codes"`
	Language     string        `json:"language"`
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

type exchangeRequest struct {
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

type accountsRequest struct {
	AccessToken string `json:"access_token"`
}

type accountBalances struct {
	Available       *float64 `json:"available"`
	Current         *float64 `json:"current"`
	ISOCurrencyCode string   `json:"iso_currency_code"`
}

type accountEntry struct {
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	OfficialName string          `json:"official_name"`
	Balances     accountBalances `json:"balances"`
	Type         string          `json:"type"`
	Subtype      string          `json:"subtype"`
}

type itemInfo struct {
	InstitutionID string `json:"institution_id"`
	ItemID        string `json:"item_id"`
}

type accountsResponse struct {
	Accounts  []accountEntry `json:"accounts"`
	Item      itemInfo       `json:"item"`
	RequestID string         `json:"request_id"`
}

type transactionsRequest struct {
	AccessToken string             `json:"access_token"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Options     transactionOptions `json:"options"`
}

type transactionOptions struct {
	AccountIDs []string `json:"account_ids,omitempty"`
}

type transactionEntry struct {
	TransactionID   string  `json:"transaction_id"`
	AccountID       string  `json:"account_id"`
	Amount          float64 `json:"amount"`
	ISOCurrencyCode string  `json:"iso_currency_code"`
	Date            string  `json:"date"`
	Name            string  `json:"name"`
	Pending         bool    `json:"pending"`
}

type transactionsResponse struct {
	Transactions      []transactionEntry `json:"transactions"`
	TotalTransactions int                `json:"total_transactions"`
	RequestID         string             `json:"request_id"`
}

type institutionsRequest struct {
	Count   int                `json:"count"`
	Offset  int                `json:"offset"`
	Options institutionOptions `json:"options,omitempty"`
}

type institutionOptions struct {
	CountryCodes []string `json:"country_codes,omitempty"`
}

type institutionEntry struct {
	InstitutionID string   `json:"institution_id"`
	Name          string   `json:"name"`
	CountryCodes  []string `json:"country_codes"`
	Logo          string   `json:"logo"`
}

type institutionsResponse struct {
	Institutions []institutionEntry `json:"institutions"`
	RequestID    string             `json:"request_id"`
}

type removeRequest struct {
	AccessToken string `json:"access_token"`
}

type removeResponse struct {
	Removed   bool   `json:"removed"`
	RequestID string `json:"request_id"`
}
