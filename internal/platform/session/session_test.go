package session

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"
)

// helper: build an unsigned JWT with the given claims. The agent never
// verifies signatures, so a placeholder signature segment is enough.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("failed to marshal header: %v", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New("", "token", "device-1"); err == nil {
		t.Fatal("expected an error for an empty base URL")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	s, err := New("https://ehr.example.com/", "", "device-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BaseURL != "https://ehr.example.com" {
		t.Errorf("expected trimmed base URL, got %q", s.BaseURL)
	}
}

func TestNew_OpaqueTokenKeptWithoutClaims(t *testing.T) {
	s, err := New("https://ehr.example.com", "not-a-jwt", "device-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Token != "not-a-jwt" {
		t.Errorf("expected the token to be kept, got %q", s.Token)
	}
	if s.Subject != "" {
		t.Errorf("expected no subject, got %q", s.Subject)
	}
	if !s.ExpiresAt.IsZero() {
		t.Errorf("expected no expiry, got %v", s.ExpiresAt)
	}
}

func TestNew_ReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := makeToken(t, map[string]any{"sub": "dr.williams", "exp": exp})

	s, err := New("https://ehr.example.com", token, "device-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Subject != "dr.williams" {
		t.Errorf("expected subject from the token, got %q", s.Subject)
	}
	if s.ExpiresAt.Unix() != exp {
		t.Errorf("expected expiry %d, got %d", exp, s.ExpiresAt.Unix())
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()

	fresh, err := New("https://ehr.example.com", makeToken(t, map[string]any{"exp": now.Add(time.Hour).Unix()}), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.Expired(now) {
		t.Error("a token expiring in an hour is not expired")
	}

	stale, err := New("https://ehr.example.com", makeToken(t, map[string]any{"exp": now.Add(-time.Hour).Unix()}), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stale.Expired(now) {
		t.Error("a token that expired an hour ago is expired")
	}

	opaque, err := New("https://ehr.example.com", "opaque", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opaque.Expired(now) {
		t.Error("a token without an exp claim never reads as expired")
	}
}

func TestSession_Actor(t *testing.T) {
	withSub, err := New("https://ehr.example.com", makeToken(t, map[string]any{"sub": "dr.lee"}), "device-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := withSub.Actor(); got != "dr.lee" {
		t.Errorf("expected the token subject, got %q", got)
	}

	withoutSub, err := New("https://ehr.example.com", "", "device-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := withoutSub.Actor(); got != "device-9" {
		t.Errorf("expected the device id fallback, got %q", got)
	}
}
