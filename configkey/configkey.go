// Package configkey derives the Config Key from a configuration document
// and implements the per-request hash protocol a server uses to confirm a
// client runs the expected configuration.
package configkey

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"examlock.dev/sebconf/canonical"
	"examlock.dev/sebconf/value"
)

// Header is the HTTP request header carrying the request hash. This core
// consumes the header value; producing it is the client's job.
const Header = "X-SafeExamBrowser-ConfigKeyHash"

// ErrNoRequestHash reports a request that carries no request-hash header.
// Callers can distinguish a client that never spoke the protocol from one
// that sent a wrong hash.
var ErrNoRequestHash = errors.New("configkey: request carries no " + Header + " header")

// ErrCapabilityUnavailable reports that the digest capability is absent in
// the current execution environment. The failure is local to the call;
// nothing is retried or cached.
var ErrCapabilityUnavailable = errors.New("configkey: digest capability unavailable")

// Digester is the injected cryptographic capability. Call sites obtain a
// handle once and pass it down; absence is modeled as a nil handle rather
// than probed at use sites.
type Digester interface {
	SHA256(data []byte) ([]byte, error)
}

type localDigester struct{}

func (localDigester) SHA256(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// LocalDigester returns a Digester backed by the process-local SHA-256
// implementation.
func LocalDigester() Digester { return localDigester{} }

// Protocol computes Config Keys and request hashes through an injected
// digest capability. All methods are pure and safe for concurrent use.
type Protocol struct {
	digest Digester
}

// New returns a Protocol using the given digest capability. A nil digester
// is a valid construction; every computation then fails with
// ErrCapabilityUnavailable.
func New(digest Digester) *Protocol {
	return &Protocol{digest: digest}
}

// ComputeConfigKey returns the Config Key for doc: the lowercase hex SHA-256
// digest of its canonical form. The key is recomputed on demand and treated
// as a shared secret between the configuration author and the verifying
// server.
func (p *Protocol) ComputeConfigKey(doc value.Dict) (string, error) {
	sum, err := p.sum(canonical.Serialize(doc))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// NormalizeURL truncates url at the first fragment marker. Everything from
// the first '#' onward is dropped, so multiple markers collapse to the same
// truncation point.
func NormalizeURL(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}

// ComputeRequestHash returns the per-request hash for url under configKey:
// the lowercase hex SHA-256 digest of the normalized URL concatenated with
// the key, byte-for-byte with no separator.
func (p *Protocol) ComputeRequestHash(url, configKey string) (string, error) {
	sum, err := p.sum([]byte(NormalizeURL(url) + configKey))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// Verify reports whether receivedHash matches the request hash for url under
// configKey, compared case-insensitively.
func (p *Protocol) Verify(url, configKey, receivedHash string) (bool, error) {
	want, err := p.ComputeRequestHash(url, configKey)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(want, receivedHash), nil
}

// VerifyRequest checks the request hash carried in r's Header against the
// hash expected for r's full URL under configKey. The URL is rebuilt from
// the request as the client addressed it: scheme from the connection, host
// from the Host header, then path and query. An absent header fails with
// ErrNoRequestHash.
func (p *Protocol) VerifyRequest(r *http.Request, configKey string) (bool, error) {
	received := r.Header.Get(Header)
	if received == "" {
		return false, ErrNoRequestHash
	}
	return p.Verify(requestURL(r), configKey, received)
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func (p *Protocol) sum(data []byte) ([]byte, error) {
	if p == nil || p.digest == nil {
		return nil, ErrCapabilityUnavailable
	}
	sum, err := p.digest.SHA256(data)
	if err != nil {
		return nil, err
	}
	if len(sum) != sha256.Size {
		return nil, errors.New("configkey: digest capability returned wrong length")
	}
	return sum, nil
}
