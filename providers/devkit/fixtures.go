package devkit

import (
	"net/http"

	"github.com/goliatone/go-bankfeed/core"
)

// JSONResponse wraps a body in the shape every fixture needs.
func JSONResponse(status int, body string) core.TransportResponse {
	return core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}
}

func OKJSON(body string) TransportScript {
	return TransportScript{Response: JSONResponse(http.StatusOK, body)}
}

func ErrorJSON(status int, body string) TransportScript {
	return TransportScript{Response: JSONResponse(status, body)}
}

// Gocardless wire fixtures.
const (
	GocardlessTokenBody = `{"access":"gc-access-token","access_expires":86400,"refresh":"gc-refresh","refresh_expires":2592000}`

	GocardlessRequisitionBody = `{"id":"req-1","status":"LN","accounts":["gc-acc-1","gc-acc-2"]}`

	GocardlessDetailsBody = `{"account":{"resourceId":"gc-acc-1","iban":"GB33BUKB20201555555555","currency":"EUR","name":"Main Account","ownerName":"Acme Ltd","product":"Current"}}`

	GocardlessBalancesBody = `{"balances":[
		{"balanceAmount":{"amount":"120.50","currency":"EUR"},"balanceType":"interimAvailable","referenceDate":"2026-02-27"},
		{"balanceAmount":{"amount":"310.02","currency":"EUR"},"balanceType":"interimBooked","referenceDate":"2026-02-27"}
	]}`

	GocardlessTransactionsBody = `{"transactions":{
		"booked":[{"transactionId":"gc-tx-1","bookingDate":"2026-02-25","transactionAmount":{"amount":"-41.00","currency":"EUR"},"creditorName":"Grocer"}],
		"pending":[{"transactionId":"gc-tx-2","valueDate":"2026-02-27","transactionAmount":{"amount":"-9.99","currency":"EUR"},"creditorName":"Cafe"}]
	}}`

	GocardlessInstitutionsBody = `[{"id":"REVOLUT_REVOGB21","name":"Revolut","logo":"https://cdn.example/revolut.png","countries":["GB","LT"]}]`
)

// Enable Banking wire fixtures.
const (
	EnableBankingSessionBody = `{"session_id":"eb-sess-1","status":"AUTHORIZED","accounts":["eb-acc-1"]}`

	EnableBankingApplicationBody = `{"name":"bankfeed","kid":"app-123","active":true}`

	EnableBankingDetailsBody = `{"account_id":{"iban":"FI2112345600000785"},"currency":"EUR","name":"Yritystili","product":"Business"}`

	EnableBankingBalancesBody = `{"balances":[
		{"name":"AVAILABLE","balance_amount":{"currency":"EUR","amount":"900.10"},"balance_type":"XPCD","reference_date":"2026-02-27"},
		{"name":"BOOKED","balance_amount":{"currency":"EUR","amount":"1250.00"},"balance_type":"CLBD","reference_date":"2026-02-27"}
	]}`

	EnableBankingTransactionsBody = `{"transactions":[
		{"entry_reference":"eb-tx-1","booking_date":"2026-02-24","transaction_amount":{"currency":"EUR","amount":"-100.00"},"creditor":{"name":"Landlord"},"status":"BOOK"},
		{"entry_reference":"eb-tx-2","booking_date":"2026-02-27","transaction_amount":{"currency":"EUR","amount":"-5.00"},"creditor":{"name":"Kiosk"},"status":"PNDG"}
	],"continuation_key":""}`

	EnableBankingASPSPsBody = `{"aspsps":[{"name":"Nordea","country":"FI","logo":"https://cdn.example/nordea.png"}]}`
)

// Teller wire fixtures.
const (
	TellerAccountsBody = `[
		{"id":"tel-acc-1","name":"Checking","currency":"USD","institution":{"id":"chase","name":"Chase"},"last_four":"1234","status":"open","type":"depository"},
		{"id":"tel-acc-2","name":"Savings","currency":"USD","institution":{"id":"chase","name":"Chase"},"last_four":"9876","status":"open","type":"depository"}
	]`

	TellerBalancesBody = `{"account_id":"tel-acc-1","available":"420.90","ledger":"450.00"}`

	TellerTransactionsBody = `[
		{"id":"tel-tx-1","account_id":"tel-acc-1","amount":"-12.50","date":"2026-02-26","description":"COFFEE SHOP","status":"posted"},
		{"id":"tel-tx-2","account_id":"tel-acc-1","amount":"-80.00","date":"2026-02-27","description":"GAS STATION","status":"pending"}
	]`
)

// Plaid wire fixtures.
const (
	PlaidLinkTokenBody = `{"link_token":"link-sandbox-abc","expiration":"2026-03-01T16:00:00Z","request_id":"req-1"}`

	PlaidExchangeBody = `{"access_token":"access-sandbox-xyz","item_id":"item-1","request_id":"req-2"}`

	PlaidAccountsBody = `{"accounts":[
		{"account_id":"pl-acc-1","name":"Plaid Checking","official_name":"Plaid Gold Standard Checking","balances":{"available":100.50,"current":110.25,"iso_currency_code":"USD"},"type":"depository","subtype":"checking"},
		{"account_id":"pl-acc-2","name":"Plaid Saving","balances":{"available":210.00,"current":210.00,"iso_currency_code":"USD"},"type":"depository","subtype":"savings"}
	],"item":{"institution_id":"ins_109508","item_id":"item-1"},"request_id":"req-3"}`

	PlaidTransactionsBody = `{"transactions":[
		{"transaction_id":"pl-tx-1","account_id":"pl-acc-1","amount":12.5,"iso_currency_code":"USD","date":"2026-02-26","name":"Coffee Shop","pending":false},
		{"transaction_id":"pl-tx-2","account_id":"pl-acc-1","amount":80,"iso_currency_code":"USD","date":"2026-02-27","name":"Gas Station","pending":true}
	],"total_transactions":2,"request_id":"req-4"}`

	PlaidInstitutionsBody = `{"institutions":[{"institution_id":"ins_109508","name":"First Platypus Bank","country_codes":["US"]}],"request_id":"req-5"}`

	PlaidRemoveBody = `{"removed":true,"request_id":"req-6"}`
)
