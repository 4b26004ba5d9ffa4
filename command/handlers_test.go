package command

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-bankfeed/core"
)

type stubMutatingService struct {
	token       core.Token
	report      core.FetchReport
	err         error
	deleteCalls int
	lastSync    core.AccountsRequest
}

func (s *stubMutatingService) Authenticate(_ context.Context, _ core.AuthenticateRequest, _ core.ProviderID) (core.Token, error) {
	return s.token, s.err
}

func (s *stubMutatingService) ExchangeCode(_ context.Context, _ core.ExchangeCodeRequest, _ core.ProviderID) (core.Token, error) {
	return s.token, s.err
}

func (s *stubMutatingService) GetAccounts(_ context.Context, req core.AccountsRequest) (core.FetchReport, error) {
	s.lastSync = req
	return s.report, s.err
}

func (s *stubMutatingService) DeleteConnection(_ context.Context, _ core.DeleteConnectionRequest) error {
	s.deleteCalls++
	return s.err
}

func TestSyncAccountsMessage_ValidateReturnsRichError(t *testing.T) {
	err := (SyncAccountsMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorCodeBadInput {
		t.Fatalf("expected %q text code, got %q", core.ErrorCodeBadInput, rich.TextCode)
	}
}

func TestExchangeCodeMessage_RequiresCode(t *testing.T) {
	msg := ExchangeCodeMessage{Provider: core.ProviderPlaid}
	if err := msg.Validate(); err == nil {
		t.Fatalf("expected missing code to fail validation")
	}
	msg.Request.Code = "public-token"
	if err := msg.Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}

func TestDeleteConnectionMessage_AcceptsEitherIdentifier(t *testing.T) {
	msg := DeleteConnectionMessage{Request: core.DeleteConnectionRequest{Provider: core.ProviderTeller}}
	if err := msg.Validate(); err == nil {
		t.Fatalf("expected missing identifiers to fail")
	}
	msg.Request.AccountID = "tel-acc-1"
	if err := msg.Validate(); err != nil {
		t.Fatalf("expected account id to satisfy validation, got %v", err)
	}
}

func TestSyncAccountsCommand_DelegatesToService(t *testing.T) {
	service := &stubMutatingService{report: core.FetchReport{
		Accounts: []core.Account{{ID: "acc-1"}},
	}}
	cmd := NewSyncAccountsCommand(service)

	err := cmd.Execute(context.Background(), SyncAccountsMessage{Request: core.AccountsRequest{
		Provider:    core.ProviderGoCardless,
		AccessToken: "token",
		SessionID:   "req-1",
	}})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if service.lastSync.SessionID != "req-1" {
		t.Fatalf("expected request forwarded, got %+v", service.lastSync)
	}
}

func TestSyncAccountsCommand_PropagatesServiceError(t *testing.T) {
	wantErr := errors.New("upstream down")
	cmd := NewSyncAccountsCommand(&stubMutatingService{err: wantErr})

	if err := cmd.Execute(context.Background(), SyncAccountsMessage{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestCommands_NilServiceReturnsRichError(t *testing.T) {
	var cmd *DeleteConnectionCommand
	err := cmd.Execute(context.Background(), DeleteConnectionMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}

func TestDeleteConnectionCommand_DelegatesToService(t *testing.T) {
	service := &stubMutatingService{}
	cmd := NewDeleteConnectionCommand(service)
	if err := cmd.Execute(context.Background(), DeleteConnectionMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if service.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", service.deleteCalls)
	}
}
