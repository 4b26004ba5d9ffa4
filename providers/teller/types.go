package teller

type institutionEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type accountEntry struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Currency    string           `json:"currency"`
	Institution institutionEntry `json:"institution"`
	LastFour    string           `json:"last_four"`
	Status      string           `json:"status"`
	Type        string           `json:"type"`
	Subtype     string           `json:"subtype"`
}

type balanceResponse struct {
	AccountID string `json:"account_id"`
	Available string `json:"available"`
	Ledger    string `json:"ledger"`
}

type transactionEntry struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
