package attest

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// IssuerKeyFromSeed returns the issuer key string for an ed25519 seed:
// "ed25519:" + base64(pubkey).
func IssuerKeyFromSeed(seed []byte) (string, error) {
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("attest: seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub), nil
}

// IssuerKeyDilithium3 returns the issuer key string for a dilithium3 public
// key: "dilithium3:" + base64(pubkey).
func IssuerKeyDilithium3(pub *mode3.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("attest: missing public key")
	}
	b, err := pub.MarshalBinary()
	if err != nil {
		return "", err
	}
	return "dilithium3:" + base64.StdEncoding.EncodeToString(b), nil
}

// GenerateDilithium3Keypair returns a new dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
