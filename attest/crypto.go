package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, newError(KindCrypto, "SEBA-CRYPTO-201", "unsupported Hash-Alg")
	}
}

// SignEd25519 renders doc with an ed25519 signature over
// hash(signed scope). The document's IssuerKey must be the ed25519 key
// corresponding to privateKey.
func SignEd25519(doc Document, privateKey ed25519.PrivateKey) ([]byte, error) {
	doc.SigAlg = "ed25519"
	doc.Signature = ""
	pre, err := Render(doc)
	if err != nil {
		return nil, err
	}
	scope, err := signedScope(pre)
	if err != nil {
		return nil, err
	}
	digest, err := digestFor(defaultHash(doc.HashAlg), scope)
	if err != nil {
		return nil, err
	}
	doc.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(privateKey, digest))
	return Render(doc)
}

// SignDilithium3 renders doc with a dilithium3 signature over
// hash(signed scope).
func SignDilithium3(doc Document, privateKey *mode3.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, newError(KindCrypto, "SEBA-CRYPTO-210", "missing private key")
	}
	doc.SigAlg = "dilithium3"
	doc.Signature = ""
	pre, err := Render(doc)
	if err != nil {
		return nil, err
	}
	scope, err := signedScope(pre)
	if err != nil {
		return nil, err
	}
	digest, err := digestFor(defaultHash(doc.HashAlg), scope)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, digest, sig)
	doc.Signature = base64.StdEncoding.EncodeToString(sig)
	return Render(doc)
}

func defaultHash(alg string) string {
	if alg == "" {
		return "sha256"
	}
	return alg
}

// IssuerPublicKeyBytes returns the raw public key bytes from the Issuer-Key
// field. Supported encodings: "ed25519:<base64>", "dilithium3:<base64>".
func (a *Attestation) IssuerPublicKeyBytes() ([]byte, error) {
	issuer := a.IssuerKey()
	alg, enc, ok := strings.Cut(issuer, ":")
	if !ok {
		return nil, newError(KindCrypto, "SEBA-CRYPTO-111", "invalid Issuer-Key encoding")
	}
	pub, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, wrapError(KindCrypto, "SEBA-CRYPTO-113", "invalid issuer key base64", err)
	}
	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return nil, newError(KindCrypto, "SEBA-CRYPTO-114", "invalid ed25519 public key length")
		}
		return pub, nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, wrapError(KindCrypto, "SEBA-CRYPTO-115", "invalid dilithium3 public key", err)
		}
		return pub, nil
	default:
		return nil, newError(KindCrypto, "SEBA-CRYPTO-112", "unsupported issuer key encoding")
	}
}

// Verify checks the attestation signature. The receiver bytes are re-parsed
// first so canonicalization cannot be bypassed through mutated fields.
func (a *Attestation) Verify() error {
	if a == nil {
		return newError(KindCrypto, "SEBA-CRYPTO-001", "nil attestation")
	}
	parsed, err := Parse(a.raw)
	if err != nil {
		return err
	}
	a = parsed

	issuerAlg, _, ok := strings.Cut(a.IssuerKey(), ":")
	if !ok {
		return newError(KindCrypto, "SEBA-CRYPTO-111", "invalid Issuer-Key encoding")
	}
	if issuerAlg != a.SigAlg() {
		return newError(KindCrypto, "SEBA-CRYPTO-121", "Issuer-Key alg does not match Signature-Alg")
	}

	pub, err := a.IssuerPublicKeyBytes()
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(a.Signature())
	if err != nil {
		return wrapError(KindCrypto, "SEBA-CRYPTO-131", "invalid signature base64", err)
	}
	scope, err := signedScope(a.raw)
	if err != nil {
		return err
	}
	digest, err := digestFor(a.HashAlg(), scope)
	if err != nil {
		return err
	}

	switch a.SigAlg() {
	case "ed25519":
		if len(sig) != ed25519.SignatureSize {
			return newError(KindCrypto, "SEBA-CRYPTO-132", "invalid ed25519 signature length")
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return newError(KindCrypto, "SEBA-CRYPTO-401", "signature invalid")
		}
		return nil
	case "dilithium3":
		if len(sig) != mode3.SignatureSize {
			return newError(KindCrypto, "SEBA-CRYPTO-133", "invalid dilithium3 signature length")
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return wrapError(KindCrypto, "SEBA-CRYPTO-115", "invalid dilithium3 public key", err)
		}
		if !mode3.Verify(&pk, digest, sig) {
			return newError(KindCrypto, "SEBA-CRYPTO-401", "signature invalid")
		}
		return nil
	default:
		return newError(KindCrypto, "SEBA-CRYPTO-301", "unsupported Signature-Alg")
	}
}
