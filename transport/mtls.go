package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const KindMTLS = "mtls"

// NewMTLSClient builds an HTTP client that presents the given client
// certificate on every connection. Banking APIs that authenticate the caller
// at the TLS layer require this instead of a header credential.
func NewMTLSClient(certificatePEM string, privateKeyPEM string, timeout time.Duration) (*http.Client, error) {
	certificatePEM = strings.TrimSpace(certificatePEM)
	privateKeyPEM = strings.TrimSpace(privateKeyPEM)
	if certificatePEM == "" || privateKeyPEM == "" {
		return nil, fmt.Errorf("transport: mtls client requires certificate and private key")
	}

	certificate, err := tls.X509KeyPair([]byte(certificatePEM), []byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("transport: load client certificate: %w", err)
	}

	if timeout <= 0 {
		timeout = defaultRESTClientTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{certificate},
				MinVersion:   tls.VersionTLS12,
			},
		},
	}, nil
}

// NewMTLSAdapter wraps a REST adapter around an mTLS-configured client. The
// adapter reports its own kind so registries can tell the two apart.
func NewMTLSAdapter(certificatePEM string, privateKeyPEM string) (*MTLSAdapter, error) {
	client, err := NewMTLSClient(certificatePEM, privateKeyPEM, 0)
	if err != nil {
		return nil, err
	}
	return &MTLSAdapter{RESTAdapter: NewRESTAdapter(client)}, nil
}

type MTLSAdapter struct {
	*RESTAdapter
}

func (*MTLSAdapter) Kind() string {
	return KindMTLS
}
