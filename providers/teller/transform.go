package teller

import (
	"strings"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers"
)

const statusPosted = "posted"

func toAccount(in accountEntry) core.Account {
	return core.Account{
		ID:       strings.TrimSpace(in.ID),
		Name:     strings.TrimSpace(in.Name),
		Currency: strings.ToUpper(strings.TrimSpace(in.Currency)),
		Institution: core.Institution{
			ID:       strings.TrimSpace(in.Institution.ID),
			Name:     strings.TrimSpace(in.Institution.Name),
			Provider: core.ProviderTeller,
		},
		Provider: core.ProviderTeller,
	}
}

// toBalances surfaces both the available and ledger figures so the highest
// one wins downstream.
func toBalances(in balanceResponse, currency string) ([]core.Balance, error) {
	raw := []string{in.Available, in.Ledger}
	balances := make([]core.Balance, 0, len(raw))
	for _, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		amount, err := providers.ParseAmount(value)
		if err != nil {
			return nil, err
		}
		balances = append(balances, core.Balance{
			Amount:   amount,
			Currency: currency,
		})
	}
	return balances, nil
}

func toTransaction(in transactionEntry) (core.Transaction, error) {
	amount, err := providers.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := providers.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	status := core.TransactionStatusPending
	if strings.EqualFold(strings.TrimSpace(in.Status), statusPosted) {
		status = core.TransactionStatusBooked
	}
	return core.Transaction{
		ID:           strings.TrimSpace(in.ID),
		Amount:       amount,
		Date:         date,
		Counterparty: strings.TrimSpace(in.Description),
		Status:       status,
	}, nil
}
