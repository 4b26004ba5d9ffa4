package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestResolvePrecedenceAndDefaultName(t *testing.T) {
	direct := &capturingLogger{id: "direct"}
	providerLogger := &capturingLogger{id: "provider"}
	provider := &capturingProvider{logger: providerLogger}

	_, resolved := Resolve("", provider, direct)
	got := resolved.(*capturingLogger)
	if got.id != "provider" {
		t.Fatalf("expected provider logger precedence, got %q", got.id)
	}
	if provider.lastName != DefaultName {
		t.Fatalf("expected default name %q, got %q", DefaultName, provider.lastName)
	}

	resolvedProvider, resolved := Resolve("bankfeed", nil, direct)
	got = resolved.(*capturingLogger)
	if got.id != "direct" {
		t.Fatalf("expected direct logger when provider is nil, got %q", got.id)
	}
	if resolvedProvider == nil {
		t.Fatalf("expected provider wrapper from logger")
	}

	_, resolved = Resolve("bankfeed", nil, nil)
	if resolved == nil {
		t.Fatalf("expected nop logger fallback")
	}
}

func TestResolveComponentAppendsToRoot(t *testing.T) {
	provider := &capturingProvider{logger: &capturingLogger{id: "provider"}}

	if _, _ = ResolveComponent("plaid", provider, nil); provider.lastName != "bankfeed.plaid" {
		t.Fatalf("expected component name, got %q", provider.lastName)
	}
	if _, _ = ResolveComponent("  ", provider, nil); provider.lastName != DefaultName {
		t.Fatalf("expected root name for blank component, got %q", provider.lastName)
	}
}

func TestGoJobBridgeCarriesMessages(t *testing.T) {
	providerLogger := &capturingLogger{id: "provider"}
	provider := &capturingProvider{logger: providerLogger}

	_, _, jobProvider, jobLogger := ResolveForJob("bankfeed.enrichment", provider, nil)
	if jobProvider == nil {
		t.Fatalf("expected go-job provider bridge")
	}
	if jobLogger == nil {
		t.Fatalf("expected go-job logger bridge")
	}

	bridged := jobProvider.GetLogger("bankfeed.enrichment")
	bridged.Info("enrichment enqueued", "provider", "plaid")

	captured := providerLogger.lastInfo
	if captured.msg != "enrichment enqueued" {
		t.Fatalf("expected bridged message, got %q", captured.msg)
	}
	if captured.args[0] != "provider" || captured.args[1] != "plaid" {
		t.Fatalf("expected bridged args, got %#v", captured.args)
	}
}

var (
	_ glog.Logger         = (*capturingLogger)(nil)
	_ glog.LoggerProvider = (*capturingProvider)(nil)
)

type capturingProvider struct {
	logger   *capturingLogger
	lastName string
}

func (p *capturingProvider) GetLogger(name string) glog.Logger {
	if p == nil {
		return glog.Nop()
	}
	p.lastName = name
	if p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type infoCall struct {
	msg  string
	args []any
}

type capturingLogger struct {
	id       string
	lastInfo infoCall
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Error(string, ...any) {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) Info(msg string, args ...any) {
	l.lastInfo = infoCall{
		msg:  msg,
		args: append([]any(nil), args...),
	}
}

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}
