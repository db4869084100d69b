package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

var testKey = []byte("test-secret-key-0123456789abcdef")

func testIssuerConfig() Config {
	return Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    testKey,
		Issuer:        "issuer-test",
	}
}

func TestIssueAndValidateAccess(t *testing.T) {
	issuer, err := NewIssuer(testIssuerConfig())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	signed, expiresAt, tokenID, err := issuer.IssueAccess("acct-1", "alice@example.com", []string{"user", "admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if signed == "" || tokenID == "" {
		t.Fatal("expected a signed token and a token id")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", expiresAt)
	}

	claims, err := issuer.ValidateAccess(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "acct-1" {
		t.Fatalf("subject: %q", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("email: %q", claims.Email)
	}
	if len(claims.Roles) != 2 || claims.Roles[1] != "admin" {
		t.Fatalf("roles: %v", claims.Roles)
	}
	if claims.ID != tokenID {
		t.Fatalf("jti mismatch: %q vs %q", claims.ID, tokenID)
	}
	if claims.Issuer != "issuer-test" {
		t.Fatalf("issuer claim: %q", claims.Issuer)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	issuer, err := NewIssuer(testIssuerConfig())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	_, _, first, err := issuer.IssueAccess("acct-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, _, second, err := issuer.IssueAccess("acct-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct token ids")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	cfg := testIssuerConfig()
	cfg.AccessTTL = time.Nanosecond
	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	signed, _, _, err := issuer.IssueAccess("acct-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := issuer.ValidateAccess(signed); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestValidateWrongKey(t *testing.T) {
	issuer, err := NewIssuer(testIssuerConfig())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	signed, _, _, err := issuer.IssueAccess("acct-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherCfg := testIssuerConfig()
	otherCfg.PrivateKey = []byte("another-secret-key-9876543210zyxw")
	other, err := NewIssuer(otherCfg)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	if _, err := other.ValidateAccess(signed); err == nil {
		t.Fatal("expected validation with a different key to fail")
	}
}

func TestValidateWrongIssuer(t *testing.T) {
	issuer, err := NewIssuer(testIssuerConfig())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	signed, _, _, err := issuer.IssueAccess("acct-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherCfg := testIssuerConfig()
	otherCfg.Issuer = "someone-else"
	other, err := NewIssuer(otherCfg)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	if _, err := other.ValidateAccess(signed); err == nil {
		t.Fatal("expected issuer mismatch to fail validation")
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	issuer, err := NewIssuer(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	signed, _, _, err := issuer.IssueAccess("acct-1", "alice@example.com", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.ValidateAccess(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "acct-1" {
		t.Fatalf("subject: %q", claims.Subject)
	}

	// An hs256 token is rejected by the ed25519 verifier.
	hsIssuer, err := NewIssuer(testIssuerConfig())
	if err != nil {
		t.Fatalf("new hs256 issuer: %v", err)
	}
	hsToken, _, _, err := hsIssuer.IssueAccess("acct-1", "", nil)
	if err != nil {
		t.Fatalf("issue hs256: %v", err)
	}
	if _, err := issuer.ValidateAccess(hsToken); err == nil {
		t.Fatal("expected cross-algorithm token to fail validation")
	}
}

func TestNewIssuerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodHS256, PrivateKey: testKey}},
		{"missing key", Config{AccessTTL: time.Minute, SigningMethod: MethodHS256}},
		{"unknown method", Config{AccessTTL: time.Minute, SigningMethod: "rs256", PrivateKey: testKey}},
		{"excess leeway", Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testKey, Leeway: 5 * time.Minute}},
		{"ed25519 without public key", Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519}},
	}

	for _, tc := range cases {
		if _, err := NewIssuer(tc.cfg); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestIssueRefreshIsOpaque(t *testing.T) {
	issuer, err := NewIssuer(testIssuerConfig())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	first, err := issuer.IssueRefresh()
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	second, err := issuer.IssueRefresh()
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if first == "" || first == second {
		t.Fatal("expected distinct opaque tokens")
	}
	if _, err := issuer.ValidateAccess(first); err == nil {
		t.Fatal("refresh token must not validate as an access token")
	}
}
