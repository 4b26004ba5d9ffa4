package gocardless

import (
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers"
)

func toInstitution(in institutionResponse) core.Institution {
	country := ""
	if len(in.Countries) > 0 {
		country = in.Countries[0]
	}
	return core.Institution{
		ID:       in.ID,
		Name:     in.Name,
		Logo:     in.Logo,
		Country:  country,
		Provider: core.ProviderGoCardless,
	}
}

func toAccount(accountID string, in accountDetailsResponse) core.Account {
	name := strings.TrimSpace(in.Account.Name)
	if name == "" {
		name = strings.TrimSpace(in.Account.Product)
	}
	if name == "" {
		name = strings.TrimSpace(in.Account.OwnerName)
	}
	return core.Account{
		ID:       accountID,
		Name:     name,
		Currency: strings.TrimSpace(in.Account.Currency),
		Provider: core.ProviderGoCardless,
	}
}

// toBalances converts every reported balance type. The caller picks the
// representative one; conversion never chooses.
func toBalances(in balancesResponse) ([]core.Balance, error) {
	balances := make([]core.Balance, 0, len(in.Balances))
	for _, entry := range in.Balances {
		amount, err := providers.ParseAmount(entry.BalanceAmount.Amount)
		if err != nil {
			return nil, err
		}
		asOf := time.Time{}
		if strings.TrimSpace(entry.ReferenceDate) != "" {
			parsed, parseErr := providers.ParseDate(entry.ReferenceDate)
			if parseErr == nil {
				asOf = parsed
			}
		}
		balances = append(balances, core.Balance{
			Amount:   amount,
			Currency: strings.TrimSpace(entry.BalanceAmount.Currency),
			AsOf:     asOf,
		})
	}
	return balances, nil
}

func toTransactions(in transactionsResponse) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(in.Transactions.Booked)+len(in.Transactions.Pending))
	for _, entry := range in.Transactions.Booked {
		tx, err := toTransaction(entry, core.TransactionStatusBooked)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	for _, entry := range in.Transactions.Pending {
		tx, err := toTransaction(entry, core.TransactionStatusPending)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func toTransaction(entry transactionEntry, status core.TransactionStatus) (core.Transaction, error) {
	amount, err := providers.ParseAmount(entry.TransactionAmount.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date := time.Time{}
	rawDate := strings.TrimSpace(entry.BookingDate)
	if rawDate == "" {
		rawDate = strings.TrimSpace(entry.ValueDate)
	}
	if rawDate != "" {
		parsed, parseErr := providers.ParseDate(rawDate)
		if parseErr != nil {
			return core.Transaction{}, parseErr
		}
		date = parsed
	}

	counterparty := strings.TrimSpace(entry.CreditorName)
	if counterparty == "" {
		counterparty = strings.TrimSpace(entry.DebtorName)
	}
	if counterparty == "" {
		counterparty = strings.TrimSpace(entry.RemittanceInfo)
	}

	return core.Transaction{
		ID:           strings.TrimSpace(entry.TransactionID),
		Amount:       amount,
		Currency:     strings.TrimSpace(entry.TransactionAmount.Currency),
		Date:         date,
		Counterparty: counterparty,
		Status:       status,
	}, nil
}
