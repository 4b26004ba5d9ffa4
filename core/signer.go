package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type AdapterSigner interface {
	Signer() Signer
}

type BearerTokenSigner struct{}

func (BearerTokenSigner) Sign(_ context.Context, req *http.Request, token Token) error {
	if req == nil {
		return fmt.Errorf("core: http request is required")
	}
	access := strings.TrimSpace(token.AccessToken)
	if access == "" {
		return fmt.Errorf("core: access token is required for bearer signing")
	}
	scheme := strings.TrimSpace(token.TokenType)
	if scheme == "" {
		scheme = "Bearer"
	}
	req.Header.Set("Authorization", scheme+" "+access)
	return nil
}

var _ Signer = BearerTokenSigner{}
