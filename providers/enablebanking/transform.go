package enablebanking

import (
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers"
)

const (
	statusBooked  = "BOOK"
	statusPending = "PNDG"
)

func toInstitution(in aspspEntry) core.Institution {
	// The gateway keys institutions by name within a country; there is no
	// separate identifier on the wire.
	return core.Institution{
		ID:       strings.ToLower(strings.ReplaceAll(strings.TrimSpace(in.Name), " ", "-")) + "-" + strings.ToLower(strings.TrimSpace(in.Country)),
		Name:     strings.TrimSpace(in.Name),
		Logo:     strings.TrimSpace(in.Logo),
		Country:  strings.ToUpper(strings.TrimSpace(in.Country)),
		Provider: core.ProviderEnableBanking,
	}
}

func toAccount(accountID string, in accountDetailsResponse) core.Account {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(in.Product)
	}
	if name == "" {
		name = strings.TrimSpace(in.AccountID.IBAN)
	}
	return core.Account{
		ID:       accountID,
		Name:     name,
		Currency: strings.TrimSpace(in.Currency),
		Provider: core.ProviderEnableBanking,
	}
}

func toBalances(in balancesResponse) ([]core.Balance, error) {
	balances := make([]core.Balance, 0, len(in.Balances))
	for _, entry := range in.Balances {
		amount, err := providers.ParseAmount(entry.BalanceAmount.Amount)
		if err != nil {
			return nil, err
		}
		asOf := time.Time{}
		if strings.TrimSpace(entry.ReferenceDate) != "" {
			if parsed, parseErr := providers.ParseDate(entry.ReferenceDate); parseErr == nil {
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
	out := make([]core.Transaction, 0, len(in.Transactions))
	for _, entry := range in.Transactions {
		amount, err := providers.ParseAmount(entry.TransactionAmount.Amount)
		if err != nil {
			return nil, err
		}

		date := time.Time{}
		rawDate := strings.TrimSpace(entry.BookingDate)
		if rawDate == "" {
			rawDate = strings.TrimSpace(entry.ValueDate)
		}
		if rawDate != "" {
			parsed, parseErr := providers.ParseDate(rawDate)
			if parseErr != nil {
				return nil, parseErr
			}
			date = parsed
		}

		name := strings.TrimSpace(entry.Creditor.Name)
		if name == "" {
			name = strings.TrimSpace(entry.Debtor.Name)
		}

		out = append(out, core.Transaction{
			ID:           strings.TrimSpace(entry.EntryReference),
			Amount:       amount,
			Currency:     strings.TrimSpace(entry.TransactionAmount.Currency),
			Date:         date,
			Counterparty: name,
			Status:       toStatus(entry.Status),
		})
	}
	return out, nil
}

func toStatus(wire string) core.TransactionStatus {
	switch strings.ToUpper(strings.TrimSpace(wire)) {
	case statusBooked:
		return core.TransactionStatusBooked
	default:
		return core.TransactionStatusPending
	}
}
