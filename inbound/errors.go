package inbound

import (
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-bankfeed/core"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Success payloads ride under a "data" key; deletes confirm with
// {"success":true}. Both shapes are part of the public surface.
type dataEnvelope struct {
	Data any `json:"data"`
}

type successEnvelope struct {
	Success bool `json:"success"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func inboundBadInput(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeBadInput)
}

func inboundInternal(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorCodeInternal)
}

// writeError renders the uniform error envelope. Everything the engine
// produces carries a rich error with a text code; anything else is treated
// as internal.
func writeError(w http.ResponseWriter, err error) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		rich = goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected error").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorCodeInternal)
	}

	status := rich.Code
	if status < http.StatusBadRequest {
		status = http.StatusBadRequest
	}
	code := strings.TrimSpace(rich.TextCode)
	if code == "" {
		code = core.ErrorCodeInternal
	}
	message := strings.TrimSpace(rich.Message)
	if message == "" {
		message = "request failed"
	}

	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeData(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, dataEnvelope{Data: payload})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
