package auth

import (
	"testing"
	"time"

	"github.com/mintforge/collections-backend/pkg/config"
	"github.com/mintforge/collections-backend/pkg/evm"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "mintforge-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	caller := evm.MustAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")

	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Caller: caller, Relayed: true})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Caller != caller {
		t.Fatalf("expected caller %s, got %s", caller.Hex(), claims.Caller.Hex())
	}
	if !claims.Relayed {
		t.Fatal("expected relayed flag to survive the round trip")
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestMintAccessToken_Validation(t *testing.T) {
	caller := evm.MustAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")

	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{"missing secret", config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, AccessTokenPayload{Caller: caller}},
		{"missing issuer", config.JWTConfig{Secret: "x", ExpirationMinutes: 1}, AccessTokenPayload{Caller: caller}},
		{"bad expiry", config.JWTConfig{Secret: "x", Issuer: "x"}, AccessTokenPayload{Caller: caller}},
		{"zero caller", testJWTConfig(), AccessTokenPayload{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MintAccessToken(tc.cfg, time.Now(), tc.payload); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	caller := evm.MustAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")

	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Caller: caller})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	cfg := testJWTConfig()
	caller := evm.MustAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")

	signed, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{Caller: caller})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}
