package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoBalances         = errors.New("core: balance set is empty")
	ErrUnknownProvider    = errors.New("core: unknown provider")
	ErrInvalidTransaction = errors.New("core: invalid transaction")
)

// ProviderID selects which backend adapter services a request. The set is
// closed: requests naming anything else fail with UNSUPPORTED_PROVIDER.
type ProviderID string

const (
	ProviderPlaid         ProviderID = "plaid"
	ProviderTeller        ProviderID = "teller"
	ProviderGoCardless    ProviderID = "gocardless"
	ProviderEnableBanking ProviderID = "enablebanking"
)

func SupportedProviders() []ProviderID {
	return []ProviderID{
		ProviderEnableBanking,
		ProviderGoCardless,
		ProviderPlaid,
		ProviderTeller,
	}
}

func ParseProviderID(value string) (ProviderID, error) {
	id := ProviderID(strings.TrimSpace(strings.ToLower(value)))
	switch id {
	case ProviderPlaid, ProviderTeller, ProviderGoCardless, ProviderEnableBanking:
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, strings.TrimSpace(value))
}

type Institution struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Logo     string     `json:"logo,omitempty"`
	Country  string     `json:"country,omitempty"`
	Provider ProviderID `json:"provider"`
}

type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	AsOf     time.Time       `json:"as_of"`
}

// Account is the canonical record produced by merging a provider's account
// detail and balance responses. It is only ever built from a successful
// detail+balance pair; a failed half yields a failure outcome instead.
type Account struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Currency    string      `json:"currency"`
	Institution Institution `json:"institution"`
	Balance     Balance     `json:"balance"`
	ValidUntil  time.Time   `json:"valid_until"`
	Provider    ProviderID  `json:"provider"`
}

type TransactionStatus string

const (
	TransactionStatusBooked  TransactionStatus = "booked"
	TransactionStatusPending TransactionStatus = "pending"
)

type Transaction struct {
	ID           string            `json:"id"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	Date         time.Time         `json:"date"`
	Counterparty string            `json:"counterparty"`
	Status       TransactionStatus `json:"status"`
}

// FetchOutcome is the tagged per-account result of one detail+balance fetch.
type FetchOutcome struct {
	AccountID string
	Account   Account
	Err       error
}

func (o FetchOutcome) Succeeded() bool {
	return o.Err == nil
}

// FetchReport is the ordered collection of outcomes for one multi-account
// fetch. Failures are carried alongside successes, never discarded.
type FetchReport struct {
	Accounts []Account
	Failed   []FetchOutcome
}

func (r FetchReport) FailedIDs() []string {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Failed))
	for _, outcome := range r.Failed {
		ids = append(ids, outcome.AccountID)
	}
	return ids
}

// SelectRepresentativeBalance picks the single balance with the numerically
// highest amount. Providers report several balance types per account
// (available, booked, interim); the engine's contract is the highest one,
// not an average.
func SelectRepresentativeBalance(balances []Balance) (Balance, error) {
	if len(balances) == 0 {
		return Balance{}, ErrNoBalances
	}
	best := balances[0]
	for _, candidate := range balances[1:] {
		if candidate.Amount.Cmp(best.Amount) > 0 {
			best = candidate
		}
	}
	return best, nil
}

// FilterBooked drops everything that is not booked. Enforced at the adapter
// boundary so no unbooked transaction ever crosses into canonical output.
func FilterBooked(transactions []Transaction) []Transaction {
	booked := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Status == TransactionStatusBooked {
			booked = append(booked, tx)
		}
	}
	return booked
}

// Token is opaque bearer material scoped to one external connection. The
// engine forwards it or exchanges it; it is never persisted here.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   *time.Time
}

type HealthStatus struct {
	Provider ProviderID `json:"provider"`
	Healthy  bool       `json:"healthy"`
}

// DomainEvent is what the engine hands to the calling job-orchestration
// layer after notable operations (sync completed, connection deleted).
type DomainEvent struct {
	ID         string
	Name       string
	Provider   ProviderID
	SessionID  string
	AccountIDs []string
	OccurredAt time.Time
	Metadata   map[string]any
}

const (
	EventSyncCompleted       = "bankfeed.sync.completed"
	EventConnectionDeleted   = "bankfeed.connection.deleted"
	EventEnrichmentRequested = "bankfeed.enrichment.requested"
)
