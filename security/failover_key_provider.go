package security

import (
	"context"
	"fmt"
	"time"
)

type KeyProviderFailurePolicy string

const (
	KeyProviderFailurePolicyStrict   KeyProviderFailurePolicy = "strict_fail"
	KeyProviderFailurePolicyFallback KeyProviderFailurePolicy = "fallback_allowed"
)

type KeyProviderDiagnostic struct {
	OccurredAt time.Time
	Policy     KeyProviderFailurePolicy
	Outcome    string
	Error      string
}

type KeyProviderDiagnosticHook func(event KeyProviderDiagnostic)

type FailoverOption func(*FailoverKeyProvider)

// FailoverKeyProvider reads the signing key from a primary source and, under
// the fallback policy, falls through to a secondary one when the primary
// fails. Strict policy surfaces the primary error untouched.
type FailoverKeyProvider struct {
	primary        KeyProvider
	fallback       KeyProvider
	policy         KeyProviderFailurePolicy
	diagnosticHook KeyProviderDiagnosticHook
	now            func() time.Time
}

func NewFailoverKeyProvider(primary KeyProvider, opts ...FailoverOption) (*FailoverKeyProvider, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary key provider is required")
	}
	provider := &FailoverKeyProvider{
		primary: primary,
		policy:  KeyProviderFailurePolicyStrict,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	if provider.policy != KeyProviderFailurePolicyFallback {
		provider.policy = KeyProviderFailurePolicyStrict
	}
	if provider.policy == KeyProviderFailurePolicyFallback && provider.fallback == nil {
		return nil, fmt.Errorf("security: fallback policy requires a configured fallback key provider")
	}
	if provider.now == nil {
		provider.now = func() time.Time { return time.Now().UTC() }
	}
	return provider, nil
}

func WithFallbackKeyProvider(provider KeyProvider) FailoverOption {
	return func(f *FailoverKeyProvider) {
		if f == nil {
			return
		}
		f.fallback = provider
	}
}

func WithKeyProviderFailurePolicy(policy KeyProviderFailurePolicy) FailoverOption {
	return func(f *FailoverKeyProvider) {
		if f == nil {
			return
		}
		f.policy = policy
	}
}

func WithKeyProviderDiagnostics(hook KeyProviderDiagnosticHook) FailoverOption {
	return func(f *FailoverKeyProvider) {
		if f == nil {
			return
		}
		f.diagnosticHook = hook
	}
}

func WithFailoverClock(now func() time.Time) FailoverOption {
	return func(f *FailoverKeyProvider) {
		if f == nil {
			return
		}
		f.now = now
	}
}

func (p *FailoverKeyProvider) SigningKey(ctx context.Context) (KeyMaterial, error) {
	if p == nil {
		return KeyMaterial{}, fmt.Errorf("security: key provider is nil")
	}
	material, err := p.primary.SigningKey(ctx)
	if err == nil {
		p.emit(KeyProviderDiagnostic{Policy: p.policy, Outcome: "primary"})
		return material, nil
	}
	if p.policy != KeyProviderFailurePolicyFallback || p.fallback == nil {
		p.emit(KeyProviderDiagnostic{Policy: p.policy, Outcome: "primary_failed", Error: err.Error()})
		return KeyMaterial{}, err
	}

	material, fallbackErr := p.fallback.SigningKey(ctx)
	if fallbackErr != nil {
		p.emit(KeyProviderDiagnostic{Policy: p.policy, Outcome: "fallback_failed", Error: fallbackErr.Error()})
		return KeyMaterial{}, fmt.Errorf("security: primary key provider failed (%v); fallback failed: %w", err, fallbackErr)
	}
	p.emit(KeyProviderDiagnostic{Policy: p.policy, Outcome: "fallback", Error: err.Error()})
	return material, nil
}

func (p *FailoverKeyProvider) emit(event KeyProviderDiagnostic) {
	if p == nil || p.diagnosticHook == nil {
		return
	}
	event.OccurredAt = p.now()
	p.diagnosticHook(event)
}

var _ KeyProvider = (*FailoverKeyProvider)(nil)
