// Package attest implements signed provenance records for sealed exam
// artifacts. An attestation binds an artifact's content ID (and optionally
// its Config Key) to an issuer key, so an institution can check who produced
// an exam file independently of the request-hash protocol.
//
// The wire form is canonical line-oriented text: a preamble, an ARTIFACT
// section and a CRYPTO section each followed by a blank line, and a
// postamble. Keys within a section are sorted; rendering the same document
// twice is byte-identical.
package attest

import (
	"sort"
	"strings"
	"time"
)

const (
	Preamble  = "-----BEGIN SEB ARTIFACT ATTESTATION-----"
	Postamble = "-----END SEB ARTIFACT ATTESTATION-----"

	// SpecID identifies this attestation format version.
	SpecID = "sebconf-attest-1"
)

var sectionOrder = []string{"ARTIFACT", "CRYPTO"}

// Document is the in-memory form for producing an attestation.
type Document struct {
	ArtifactCID string
	ConfigKey   string    // optional, 64 lowercase hex chars when present
	Description string    // optional
	IssuedAt    time.Time // optional; zero means omit

	IssuerKey string // "<alg>:<base64 public key>"
	HashAlg   string // sha256 or sha3-256
	SigAlg    string // ed25519 or dilithium3
	Signature string // base64; "0" placeholder before signing
}

// Render produces canonical attestation bytes from doc. An empty Signature
// renders as the "0" placeholder so the signing scope can be computed.
func Render(doc Document) ([]byte, error) {
	if doc.ArtifactCID == "" {
		return nil, newError(KindRender, "SEBA-RENDER-001", "missing artifact CID")
	}
	if doc.IssuerKey == "" {
		return nil, newError(KindRender, "SEBA-RENDER-002", "missing issuer key")
	}
	hashAlg := doc.HashAlg
	if hashAlg == "" {
		hashAlg = "sha256"
	}
	sigAlg := doc.SigAlg
	if sigAlg == "" {
		sigAlg, _, _ = strings.Cut(doc.IssuerKey, ":")
	}
	sig := doc.Signature
	if sig == "" {
		sig = "0"
	}

	artifactLines := []string{
		"Artifact-CID: " + doc.ArtifactCID,
		"Spec: " + SpecID,
		"Version: 1",
	}
	if doc.ConfigKey != "" {
		artifactLines = append(artifactLines, "Config-Key: "+doc.ConfigKey)
	}
	if doc.Description != "" {
		artifactLines = append(artifactLines, "Description: "+doc.Description)
	}
	if !doc.IssuedAt.IsZero() {
		artifactLines = append(artifactLines, "Issued-At: "+doc.IssuedAt.UTC().Format(time.RFC3339))
	}
	cryptoLines := []string{
		"Hash-Alg: " + hashAlg,
		"Issuer-Key: " + doc.IssuerKey,
		"Signature: " + sig,
		"Signature-Alg: " + sigAlg,
	}

	for _, l := range append(append([]string(nil), artifactLines...), cryptoLines...) {
		_, v, _ := strings.Cut(l, ": ")
		if strings.ContainsAny(v, "\n\r") {
			return nil, newError(KindRender, "SEBA-RENDER-010", "value must not contain newlines")
		}
	}

	sort.Strings(artifactLines)
	sort.Strings(cryptoLines)

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")
	sb.WriteString("ARTIFACT\n")
	for _, l := range artifactLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString("CRYPTO\n")
	for _, l := range cryptoLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(Postamble)
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// Attestation is a parsed, canonical attestation.
type Attestation struct {
	raw      []byte
	Artifact map[string]string
	Crypto   map[string]string
}

// Parse validates canonical attestation bytes and returns the parsed form.
// Non-canonical input (unsorted keys, missing blank lines, stray content) is
// rejected rather than repaired.
func Parse(data []byte) (*Attestation, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 3 {
		return nil, newError(KindParse, "SEBA-STR-001", "attestation too short")
	}
	if lines[0] != Preamble {
		return nil, newError(KindParse, "SEBA-STR-010", "missing preamble")
	}
	if lines[len(lines)-1] != "" {
		return nil, newError(KindCanonical, "SEBA-CANON-001", "missing trailing newline")
	}
	if lines[len(lines)-2] != Postamble {
		return nil, newError(KindParse, "SEBA-STR-011", "missing postamble")
	}

	sections := make(map[string]map[string]string, len(sectionOrder))
	i := 1
	for _, name := range sectionOrder {
		if i >= len(lines)-2 || lines[i] != name {
			return nil, newError(KindParse, "SEBA-STR-020", "sections missing or out of order")
		}
		i++
		start := i
		for i < len(lines)-2 && lines[i] != "" {
			i++
		}
		if i >= len(lines)-2 {
			return nil, newError(KindCanonical, "SEBA-CANON-010", "missing blank line after section "+name)
		}
		pairs, err := parseSortedPairs(name, lines[start:i])
		if err != nil {
			return nil, err
		}
		sections[name] = pairs
		i++ // section terminator blank line
	}
	if i != len(lines)-2 {
		return nil, newError(KindParse, "SEBA-STR-030", "unexpected content before postamble")
	}

	a := &Attestation{
		raw:      append([]byte(nil), data...),
		Artifact: sections["ARTIFACT"],
		Crypto:   sections["CRYPTO"],
	}
	if err := a.checkRequired(); err != nil {
		return nil, err
	}
	return a, nil
}

func parseSortedPairs(section string, body []string) (map[string]string, error) {
	pairs := make(map[string]string, len(body))
	prev := ""
	for _, l := range body {
		k, v, ok := strings.Cut(l, ": ")
		if !ok || k == "" || v == "" {
			return nil, newError(KindParse, "SEBA-STR-040", section+": invalid key-value formatting")
		}
		if _, dup := pairs[k]; dup {
			return nil, newError(KindParse, "SEBA-STR-041", section+": duplicate key "+k)
		}
		if prev != "" && !(prev < l) {
			return nil, newError(KindCanonical, "SEBA-CANON-020", section+": lines not sorted")
		}
		prev = l
		pairs[k] = v
	}
	return pairs, nil
}

func (a *Attestation) checkRequired() error {
	for _, k := range []string{"Artifact-CID", "Spec", "Version"} {
		if a.Artifact[k] == "" {
			return newError(KindParse, "SEBA-STR-050", "ARTIFACT: missing "+k)
		}
	}
	if a.Artifact["Spec"] != SpecID {
		return newError(KindParse, "SEBA-STR-051", "unsupported Spec")
	}
	if a.Artifact["Version"] != "1" {
		return newError(KindParse, "SEBA-STR-052", "unsupported Version")
	}
	for _, k := range []string{"Hash-Alg", "Issuer-Key", "Signature", "Signature-Alg"} {
		if a.Crypto[k] == "" {
			return newError(KindParse, "SEBA-STR-053", "CRYPTO: missing "+k)
		}
	}
	return nil
}

// Bytes returns the attestation's canonical bytes.
func (a *Attestation) Bytes() []byte { return append([]byte(nil), a.raw...) }

func (a *Attestation) ArtifactCID() string { return a.Artifact["Artifact-CID"] }
func (a *Attestation) ConfigKey() string   { return a.Artifact["Config-Key"] }
func (a *Attestation) IssuerKey() string   { return a.Crypto["Issuer-Key"] }
func (a *Attestation) HashAlg() string     { return a.Crypto["Hash-Alg"] }
func (a *Attestation) SigAlg() string      { return a.Crypto["Signature-Alg"] }
func (a *Attestation) Signature() string   { return a.Crypto["Signature"] }

// signedScope returns the attestation bytes with the Signature line removed;
// this is the message the signature covers.
func signedScope(data []byte) ([]byte, error) {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	removed := false
	for _, l := range lines {
		if strings.HasPrefix(l, "Signature: ") {
			if removed {
				return nil, newError(KindCrypto, "SEBA-CRYPTO-140", "multiple Signature lines")
			}
			removed = true
			continue
		}
		out = append(out, l)
	}
	if !removed {
		return nil, newError(KindCrypto, "SEBA-CRYPTO-141", "missing Signature line")
	}
	return []byte(strings.Join(out, "\n")), nil
}
