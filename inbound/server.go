// Package inbound exposes the aggregation engine over HTTP. Every endpoint
// parses its parameters, dispatches the matching command or query message,
// and renders either the JSON payload or the uniform error envelope.
package inbound

import (
	"net/http"
	"strconv"
	"strings"

	gocmd "github.com/goliatone/go-command"
	glog "github.com/goliatone/go-logger/glog"

	bankfeedcommand "github.com/goliatone/go-bankfeed/command"
	"github.com/goliatone/go-bankfeed/core"
	bankfeedquery "github.com/goliatone/go-bankfeed/query"
)

// Handlers is the message-handler surface the HTTP layer dispatches into.
type Handlers struct {
	SyncAccounts     *bankfeedcommand.SyncAccountsCommand
	DeleteConnection *bankfeedcommand.DeleteConnectionCommand
	AccountDetails   *bankfeedquery.GetAccountDetailsQuery
	AccountBalance   *bankfeedquery.GetAccountBalanceQuery
	Transactions     *bankfeedquery.GetTransactionsQuery
	Institutions     *bankfeedquery.ListInstitutionsQuery
	Health           *bankfeedquery.HealthQuery
}

func (h Handlers) validate() error {
	if h.SyncAccounts == nil || h.DeleteConnection == nil ||
		h.AccountDetails == nil || h.AccountBalance == nil ||
		h.Transactions == nil || h.Institutions == nil || h.Health == nil {
		return inboundInternal("inbound: every handler is required")
	}
	return nil
}

type Server struct {
	handlers Handlers
	logger   glog.Logger
}

type ServerOption func(*Server)

func WithLogger(logger glog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(handlers Handlers, opts ...ServerOption) (*Server, error) {
	if err := handlers.validate(); err != nil {
		return nil, err
	}
	server := &Server{handlers: handlers}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(server)
	}
	server.logger = glog.Ensure(server.logger)
	return server, nil
}

// Handler builds the route table. Paths and param names follow the public
// surface: camelCase query params, bearer token or accessToken fallback.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts", s.handleGetAccounts)
	mux.HandleFunc("DELETE /accounts", s.handleDeleteAccounts)
	mux.HandleFunc("GET /accounts/balance", s.handleGetBalance)
	mux.HandleFunc("GET /accounts/details", s.handleGetDetails)
	mux.HandleFunc("GET /transactions", s.handleGetTransactions)
	mux.HandleFunc("GET /institutions", s.handleGetInstitutions)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	msg := bankfeedcommand.SyncAccountsMessage{
		Request: core.AccountsRequest{
			Provider:      core.ProviderID(queryParam(r, "provider")),
			AccessToken:   accessToken(r),
			InstitutionID: queryParam(r, "institutionId"),
			SessionID:     selectorParam(r, "sessionId"),
		},
	}

	collector := gocmd.NewResult[core.FetchReport]()
	ctx := gocmd.ContextWithResult(r.Context(), collector)
	if err := s.handlers.SyncAccounts.Execute(ctx, msg); err != nil {
		s.fail(r, "accounts sync", err, w)
		return
	}
	report, ok := collector.Load()
	if !ok {
		writeError(w, inboundInternal("inbound: sync produced no report"))
		return
	}
	// Partial failures are logged, never surfaced in the 200 body.
	if failed := report.FailedIDs(); len(failed) > 0 {
		s.logger.WithContext(r.Context()).Warn("accounts sync returned partial results",
			"provider", string(msg.Request.Provider),
			"failed_ids", failed,
		)
	}
	accounts := report.Accounts
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeData(w, accounts)
}

func (s *Server) handleDeleteAccounts(w http.ResponseWriter, r *http.Request) {
	msg := bankfeedcommand.DeleteConnectionMessage{
		Request: core.DeleteConnectionRequest{
			Provider:    core.ProviderID(queryParam(r, "provider")),
			AccessToken: accessToken(r),
			AccountID:   queryParam(r, "accountId"),
		},
	}

	if err := s.handlers.DeleteConnection.Execute(r.Context(), msg); err != nil {
		s.fail(r, "connection delete", err, w)
		return
	}
	writeJSON(w, http.StatusOK, successEnvelope{Success: true})
}

func (s *Server) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	account, err := s.handlers.AccountDetails.Query(r.Context(), bankfeedquery.GetAccountDetailsMessage{
		Request: accountRequest(r),
	})
	if err != nil {
		s.fail(r, "account details", err, w)
		return
	}
	writeData(w, account)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.handlers.AccountBalance.Query(r.Context(), bankfeedquery.GetAccountBalanceMessage{
		Request: accountRequest(r),
	})
	if err != nil {
		s.fail(r, "account balance", err, w)
		return
	}
	writeData(w, balance)
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	latest, err := boolParam(r, "latest")
	if err != nil {
		writeError(w, err)
		return
	}
	transactions, err := s.handlers.Transactions.Query(r.Context(), bankfeedquery.GetTransactionsMessage{
		Request: core.TransactionsRequest{
			Provider:    core.ProviderID(queryParam(r, "provider")),
			AccessToken: accessToken(r),
			AccountID:   selectorParam(r, "accountId"),
			Latest:      latest,
		},
	})
	if err != nil {
		s.fail(r, "transactions list", err, w)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeData(w, transactions)
}

func (s *Server) handleGetInstitutions(w http.ResponseWriter, r *http.Request) {
	institutions, err := s.handlers.Institutions.Query(r.Context(), bankfeedquery.ListInstitutionsMessage{
		Provider: core.ProviderID(queryParam(r, "provider")),
		Request: core.InstitutionsRequest{
			Country: queryParam(r, "country"),
		},
	})
	if err != nil {
		s.fail(r, "institutions list", err, w)
		return
	}
	if institutions == nil {
		institutions = []core.Institution{}
	}
	writeData(w, institutions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.handlers.Health.Query(r.Context(), bankfeedquery.HealthMessage{})
	if err != nil {
		s.fail(r, "health check", err, w)
		return
	}
	if statuses == nil {
		statuses = []core.HealthStatus{}
	}
	writeData(w, statuses)
}

func (s *Server) fail(r *http.Request, operation string, err error, w http.ResponseWriter) {
	s.logger.WithContext(r.Context()).Error(operation+" failed",
		"path", r.URL.Path,
		"error", err.Error(),
	)
	writeError(w, err)
}

func accountRequest(r *http.Request) core.AccountRequest {
	return core.AccountRequest{
		Provider:    core.ProviderID(queryParam(r, "provider")),
		AccessToken: accessToken(r),
		AccountID:   selectorParam(r, "accountId"),
	}
}

// selectorParam reads the record selector: the public surface names it "id",
// the verbose alias stays accepted.
func selectorParam(r *http.Request, alias string) string {
	if value := queryParam(r, "id"); value != "" {
		return value
	}
	return queryParam(r, alias)
}

// accessToken prefers the Authorization bearer header; the accessToken query
// param exists for clients that cannot set headers.
func accessToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return queryParam(r, "accessToken")
}

func queryParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := queryParam(r, name)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, inboundBadInput("inbound: " + name + " must be a boolean")
	}
	return value, nil
}
