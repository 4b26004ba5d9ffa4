package transport

import "testing"

func TestNewMTLSClient_RequiresMaterial(t *testing.T) {
	if _, err := NewMTLSClient("", "", 0); err == nil {
		t.Fatalf("expected error without key material")
	}
	if _, err := NewMTLSClient("cert", "", 0); err == nil {
		t.Fatalf("expected error without private key")
	}
	if _, err := NewMTLSClient("not-a-cert", "not-a-key", 0); err == nil {
		t.Fatalf("expected error for invalid pem material")
	}
}
