package enablebanking

type applicationResponse struct {
	Name   string `json:"name"`
	KID    string `json:"kid"`
	Active bool   `json:"active"`
}

type sessionResponse struct {
	SessionID string   `json:"session_id"`
	Status    string   `json:"status"`
	Accounts  []string `json:"accounts"`
}

type aspspEntry struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
}

type aspspsResponse struct {
	ASPSPs []aspspEntry `json:"aspsps"`
}

type accountDetailsResponse struct {
	AccountID struct {
		IBAN string `json:"iban"`
	} `json:"account_id"`
	Currency string `json:"currency"`
	Name     string `json:"name"`
	Product  string `json:"product"`
}

type amountValue struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type balanceEntry struct {
	Name          string      `json:"name"`
	BalanceAmount amountValue `json:"balance_amount"`
	BalanceType   string      `json:"balance_type"`
	ReferenceDate string      `json:"reference_date"`
}

type balancesResponse struct {
	Balances []balanceEntry `json:"balances"`
}

type counterparty struct {
	Name string `json:"name"`
}

type transactionEntry struct {
	EntryReference    string      `json:"entry_reference"`
	BookingDate       string      `json:"booking_date"`
	ValueDate         string      `json:"value_date"`
	TransactionAmount amountValue `json:"transaction_amount"`
	Creditor          counterparty `json:"creditor"`
	Debtor            counterparty `json:"debtor"`
	Status            string      `json:"status"`
}

type transactionsResponse struct {
	Transactions    []transactionEntry `json:"transactions"`
	ContinuationKey string             `json:"continuation_key"`
}
