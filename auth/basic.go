package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-bankfeed/core"
)

// BasicTokenSigner sends the access token as the basic-auth username with an
// empty password, the scheme mTLS-fronted APIs tend to use.
type BasicTokenSigner struct{}

func (BasicTokenSigner) Sign(_ context.Context, req *http.Request, token core.Token) error {
	if req == nil {
		return fmt.Errorf("auth: http request is required")
	}
	access := strings.TrimSpace(token.AccessToken)
	if access == "" {
		return fmt.Errorf("auth: access token is required for basic signing")
	}
	req.SetBasicAuth(access, "")
	return nil
}

var _ core.Signer = BasicTokenSigner{}
