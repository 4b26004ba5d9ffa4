package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Taxonomy text codes. These are the only codes the transport boundary ever
// shows; provider-internal status codes stay inside error metadata.
const (
	ErrorCodeAuthentication      = "AUTHENTICATION_ERROR"
	ErrorCodeProvider            = "PROVIDER_ERROR"
	ErrorCodeTimeout             = "TIMEOUT_ERROR"
	ErrorCodeUnsupportedProvider = "UNSUPPORTED_PROVIDER"
	ErrorCodeAggregateFetch      = "AGGREGATE_FETCH_ERROR"
	ErrorCodeBadInput            = "BAD_INPUT"
	ErrorCodeRateLimited         = "RATE_LIMITED"
	ErrorCodeInternal            = "INTERNAL_ERROR"
)

// DefaultUpstreamCode is the sentinel recorded when a provider fails without
// handing back its own error code.
const DefaultUpstreamCode = "unknown"

func NewAuthenticationError(message string, cause error) *goerrors.Error {
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryAuth, message).
			WithCode(http.StatusBadRequest).
			WithTextCode(ErrorCodeAuthentication)
	}
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeAuthentication)
}

// NewProviderError normalizes an upstream 4xx/5xx or transport failure. The
// upstream code string is preserved in metadata when the provider sent one.
func NewProviderError(provider ProviderID, upstreamCode string, message string, cause error) *goerrors.Error {
	code := strings.TrimSpace(upstreamCode)
	if code == "" {
		code = DefaultUpstreamCode
	}
	metadata := map[string]any{
		"provider":      string(provider),
		"upstream_code": code,
	}
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
			WithCode(http.StatusBadRequest).
			WithTextCode(ErrorCodeProvider).
			WithMetadata(metadata)
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeProvider).
		WithMetadata(metadata)
}

func NewTimeoutError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryOperation).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeTimeout)
}

func NewUnsupportedProviderError(value string) *goerrors.Error {
	return goerrors.New(
		"bankfeed: unsupported provider: "+strings.TrimSpace(value),
		goerrors.CategoryBadInput,
	).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeUnsupportedProvider).
		WithMetadata(map[string]any{"provider": strings.TrimSpace(value)})
}

// NewAggregateFetchError reports that every account in a multi-account fetch
// failed. It names the originating session so the failure is traceable.
func NewAggregateFetchError(provider ProviderID, sessionID string, failed int) *goerrors.Error {
	return goerrors.New(
		"bankfeed: all account fetches failed for session "+strings.TrimSpace(sessionID),
		goerrors.CategoryExternal,
	).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeAggregateFetch).
		WithMetadata(map[string]any{
			"provider":     string(provider),
			"session_id":   strings.TrimSpace(sessionID),
			"failed_count": failed,
		})
}

func NewBadInputError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeBadInput)
}

// engineErrorMapper guarantees every error leaving the engine carries a
// category, an HTTP code, and a taxonomy text code.
func engineErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unknown provider"), strings.Contains(msg, "unsupported provider"):
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).
				WithTextCode(ErrorCodeUnsupportedProvider),
		)
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryOperation, err.Error()).
				WithTextCode(ErrorCodeTimeout),
		)
	case strings.Contains(msg, "signing"), strings.Contains(msg, "token"), strings.Contains(msg, "credential"):
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryAuth, err.Error()).
				WithTextCode(ErrorCodeAuthentication),
		)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).
				WithTextCode(ErrorCodeBadInput),
		)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = http.StatusBadRequest
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorCodeBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorCodeAuthentication
	case goerrors.CategoryExternal:
		return ErrorCodeProvider
	case goerrors.CategoryRateLimit:
		return ErrorCodeRateLimited
	case goerrors.CategoryOperation:
		return ErrorCodeTimeout
	default:
		return ErrorCodeInternal
	}
}
