package server

import "testing"

func TestSplitIssuerClient(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantIssuer string
		wantClient string
		wantOK     bool
	}{
		{"valid pair", "https://accounts.google.com billfold-cli", "https://accounts.google.com", "billfold-cli", true},
		{"extra whitespace", "  https://issuer.example   client-1  ", "https://issuer.example", "client-1", true},
		{"missing client id", "https://accounts.google.com", "", "", false},
		{"too many fields", "https://issuer.example client extra", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, clientID, ok := splitIssuerClient(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("splitIssuerClient(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if issuer != tt.wantIssuer || clientID != tt.wantClient {
				t.Errorf("splitIssuerClient(%q) = %q, %q, want %q, %q",
					tt.value, issuer, clientID, tt.wantIssuer, tt.wantClient)
			}
		})
	}
}
