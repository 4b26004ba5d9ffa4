package plaid

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers"
)

// toAccount builds the canonical record straight from the listing: Plaid
// returns detail and balances in one payload, so there is no pair fetch.
func toAccount(in accountEntry, institutionID string) core.Account {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(in.OfficialName)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Balances.ISOCurrencyCode))
	return core.Account{
		ID:       strings.TrimSpace(in.AccountID),
		Name:     name,
		Currency: currency,
		Institution: core.Institution{
			ID:       strings.TrimSpace(institutionID),
			Provider: core.ProviderPlaid,
		},
		Balance:  selectBalance(in.Balances, currency),
		Provider: core.ProviderPlaid,
	}
}

func selectBalance(in accountBalances, currency string) core.Balance {
	candidates := make([]core.Balance, 0, 2)
	for _, value := range []*float64{in.Available, in.Current} {
		if value == nil {
			continue
		}
		candidates = append(candidates, core.Balance{
			Amount:   decimal.NewFromFloat(*value),
			Currency: currency,
		})
	}
	best, err := core.SelectRepresentativeBalance(candidates)
	if err != nil {
		return core.Balance{Currency: currency}
	}
	return best
}

func toTransaction(in transactionEntry) (core.Transaction, error) {
	date, err := providers.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	status := core.TransactionStatusBooked
	if in.Pending {
		status = core.TransactionStatusPending
	}
	// Plaid reports outflows as positive amounts; flip the sign so spending
	// is negative like everywhere else.
	return core.Transaction{
		ID:           strings.TrimSpace(in.TransactionID),
		Amount:       decimal.NewFromFloat(in.Amount).Neg(),
		Currency:     strings.ToUpper(strings.TrimSpace(in.ISOCurrencyCode)),
		Date:         date,
		Counterparty: strings.TrimSpace(in.Name),
		Status:       status,
	}, nil
}

func toInstitution(in institutionEntry) core.Institution {
	country := ""
	if len(in.CountryCodes) > 0 {
		country = strings.ToUpper(strings.TrimSpace(in.CountryCodes[0]))
	}
	return core.Institution{
		ID:       strings.TrimSpace(in.InstitutionID),
		Name:     strings.TrimSpace(in.Name),
		Logo:     strings.TrimSpace(in.Logo),
		Country:  country,
		Provider: core.ProviderPlaid,
	}
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
