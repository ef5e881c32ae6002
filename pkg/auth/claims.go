package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// AccessTokenPayload captures the data available when minting a JWT. Caller
// is the logical signer address: for relayed meta-transactions the relay
// infrastructure verifies the signature upstream and mints a token for the
// recovered signer, so services never distinguish direct from relayed calls.
type AccessTokenPayload struct {
	Caller  evm.Address
	Relayed bool
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Caller  evm.Address `json:"caller"`
	Relayed bool        `json:"relayed,omitempty"`
	jwt.RegisteredClaims
}
