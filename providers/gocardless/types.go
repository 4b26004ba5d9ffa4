package gocardless

type tokenResponse struct {
	Access         string `json:"access"`
	AccessExpires  int    `json:"access_expires"`
	Refresh        string `json:"refresh"`
	RefreshExpires int    `json:"refresh_expires"`
}

type institutionResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Logo      string   `json:"logo"`
	Countries []string `json:"countries"`
}

type requisitionResponse struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Accounts []string `json:"accounts"`
}

type accountDetailsResponse struct {
	Account struct {
		ResourceID string `json:"resourceId"`
		IBAN       string `json:"iban"`
		Currency   string `json:"currency"`
		Name       string `json:"name"`
		OwnerName  string `json:"ownerName"`
		Product    string `json:"product"`
	} `json:"account"`
}

type balanceAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type balanceEntry struct {
	BalanceAmount balanceAmount `json:"balanceAmount"`
	BalanceType   string        `json:"balanceType"`
	ReferenceDate string        `json:"referenceDate"`
}

type balancesResponse struct {
	Balances []balanceEntry `json:"balances"`
}

type transactionEntry struct {
	TransactionID     string        `json:"transactionId"`
	BookingDate       string        `json:"bookingDate"`
	ValueDate         string        `json:"valueDate"`
	TransactionAmount balanceAmount `json:"transactionAmount"`
	CreditorName      string        `json:"creditorName"`
	DebtorName        string        `json:"debtorName"`
	RemittanceInfo    string        `json:"remittanceInformationUnstructured"`
}

type transactionsResponse struct {
	Transactions struct {
		Booked  []transactionEntry `json:"booked"`
		Pending []transactionEntry `json:"pending"`
	} `json:"transactions"`
}
