package gocardless

import (
	"context"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/providers/devkit"
)

func testAdapter(t *testing.T, transport core.TransportAdapter) *Adapter {
	t.Helper()
	adapter, err := New(Config{
		SecretID:  "sid",
		SecretKey: "skey",
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}, transport)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

func TestAuthenticate_ExchangesSecretPair(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.OKJSON(devkit.GocardlessTokenBody))
	adapter := testAdapter(t, fake)

	token, err := adapter.Authenticate(context.Background(), core.AuthenticateRequest{})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if token.AccessToken != "gc-access-token" {
		t.Fatalf("unexpected token %q", token.AccessToken)
	}
	if token.ExpiresAt == nil || !token.ExpiresAt.Equal(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", token.ExpiresAt)
	}

	requests := fake.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if !strings.HasSuffix(requests[0].URL, "/api/v2/token/new/") {
		t.Fatalf("unexpected url %q", requests[0].URL)
	}
	if !strings.Contains(string(requests[0].Body), `"secret_id":"sid"`) {
		t.Fatalf("expected secret pair in body, got %s", requests[0].Body)
	}
}

func TestGetAccounts_FansOutPerRequisitionAccount(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest")
	fake.Route("/requisitions/req-1/", devkit.OKJSON(devkit.GocardlessRequisitionBody))
	fake.Route("/details/", devkit.OKJSON(devkit.GocardlessDetailsBody))
	fake.Route("/balances/", devkit.OKJSON(devkit.GocardlessBalancesBody))
	adapter := testAdapter(t, fake)

	report, err := adapter.GetAccounts(context.Background(), core.AccountsRequest{
		Provider:    core.ProviderGoCardless,
		AccessToken: "tok",
		SessionID:   "req-1",
	})
	if err != nil {
		t.Fatalf("get accounts: %v", err)
	}
	if len(report.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(report.Accounts))
	}

	account := report.Accounts[0]
	if account.Name != "Main Account" || account.Currency != "EUR" {
		t.Fatalf("unexpected account: %+v", account)
	}
	// The representative balance is the highest of the reported set.
	if !account.Balance.Amount.Equal(decimal.RequireFromString("310.02")) {
		t.Fatalf("expected highest balance selected, got %s", account.Balance.Amount)
	}

	for _, request := range fake.Requests() {
		if strings.Contains(request.URL, "/accounts/") {
			if request.Headers["Authorization"] != "Bearer tok" {
				t.Fatalf("expected bearer auth on %q", request.URL)
			}
		}
	}
}

func TestGetAccounts_AllAccountFailuresAggregate(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest")
	fake.Route("/requisitions/req-1/", devkit.OKJSON(devkit.GocardlessRequisitionBody))
	fake.Route("/details/", devkit.ErrorJSON(502, `{"summary":"upstream unavailable","type":"GatewayError"}`))
	fake.Route("/balances/", devkit.ErrorJSON(502, `{"summary":"upstream unavailable","type":"GatewayError"}`))
	adapter := testAdapter(t, fake)

	_, err := adapter.GetAccounts(context.Background(), core.AccountsRequest{
		AccessToken: "tok",
		SessionID:   "req-1",
	})
	if err == nil {
		t.Fatalf("expected aggregate error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != core.ErrorCodeAggregateFetch {
		t.Fatalf("expected aggregate code, got %q", richErr.TextCode)
	}
}

func TestGetTransactions_LatestUsesFiveDayWindow(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.OKJSON(devkit.GocardlessTransactionsBody))
	adapter := testAdapter(t, fake)

	transactions, err := adapter.GetTransactions(context.Background(), core.TransactionsRequest{
		AccessToken: "tok",
		AccountID:   "gc-acc-1",
		Latest:      true,
	})
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected the pending entry filtered out, got %d", len(transactions))
	}
	if transactions[0].Status != core.TransactionStatusBooked {
		t.Fatalf("unexpected status: %+v", transactions)
	}

	requests := fake.Requests()
	if requests[0].Query["date_from"] != "2026-02-24" {
		t.Fatalf("expected trailing five-day window, got %q", requests[0].Query["date_from"])
	}
}

func TestGetTransactions_FullHistoryOmitsWindow(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.OKJSON(devkit.GocardlessTransactionsBody))
	adapter := testAdapter(t, fake)

	if _, err := adapter.GetTransactions(context.Background(), core.TransactionsRequest{
		AccessToken: "tok",
		AccountID:   "gc-acc-1",
	}); err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if _, ok := fake.Requests()[0].Query["date_from"]; ok {
		t.Fatalf("full history should not send date_from")
	}
}

func TestGetInstitutions_MapsCountry(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.OKJSON(devkit.GocardlessInstitutionsBody))
	adapter := testAdapter(t, fake)

	institutions, err := adapter.GetInstitutions(context.Background(), core.InstitutionsRequest{Country: "gb"})
	if err != nil {
		t.Fatalf("get institutions: %v", err)
	}
	if len(institutions) != 1 || institutions[0].Name != "Revolut" {
		t.Fatalf("unexpected institutions: %+v", institutions)
	}
	if institutions[0].Country != "GB" {
		t.Fatalf("expected first listed country, got %q", institutions[0].Country)
	}
	if fake.Requests()[0].Query["country"] != "GB" {
		t.Fatalf("expected country uppercased on the wire")
	}
}

func TestAuthenticate_UpstreamErrorCarriesCode(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest",
		devkit.ErrorJSON(429, `{"summary":"Rate limit exceeded","type":"RateLimitError"}`))
	adapter := testAdapter(t, fake)

	_, err := adapter.Authenticate(context.Background(), core.AuthenticateRequest{})
	if err == nil {
		t.Fatalf("expected provider error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != core.ErrorCodeProvider {
		t.Fatalf("expected provider code, got %q", richErr.TextCode)
	}
	if richErr.Metadata["upstream_code"] != "RateLimitError" {
		t.Fatalf("expected upstream code preserved, got %v", richErr.Metadata)
	}
}

func TestDeleteConnection_TargetsRequisition(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.TransportScript{
		Response: devkit.JSONResponse(204, ""),
	})
	adapter := testAdapter(t, fake)

	if err := adapter.DeleteConnection(context.Background(), core.DeleteConnectionRequest{
		AccessToken: "tok",
		AccountID:   "req-1",
	}); err != nil {
		t.Fatalf("delete connection: %v", err)
	}
	request := fake.Requests()[0]
	if request.Method != "DELETE" || !strings.HasSuffix(request.URL, "/api/v2/requisitions/req-1/") {
		t.Fatalf("unexpected request %s %s", request.Method, request.URL)
	}
}
