package testutil

import (
	"crypto/rsa"
	"testing"

	"github.com/teledermato/intake-service/internal/auth"
)

// CreateTestVerifier creates a verifier configured for E2E testing
// It returns the verifier and the private key to sign test tokens
func CreateTestVerifier(t *testing.T) (*auth.Verifier, *rsa.PrivateKey) {
	t.Helper()

	privateKey, publicKey := GenerateTestKeyPair(t)

	// JWKS preloaded with the test key, no network fetch
	testJWKS := auth.NewTestJWKS(publicKey)

	cfg := auth.Config{
		Issuer: TestIssuer,
	}

	verifier := auth.NewVerifier(cfg, testJWKS)

	return verifier, privateKey
}
