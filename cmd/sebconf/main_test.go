package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	cfg := `{"startURL":"https://exam.example.com","allowQuit":false,"originatorVersion":"3.7.0"}`
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigKeyCommand(t *testing.T) {
	path := writeConfig(t, t.TempDir())
	var out, errOut bytes.Buffer
	if code := run([]string{"config-key", path}, &out, &errOut); code != 0 {
		t.Fatalf("config-key exited %d: %s", code, errOut.String())
	}
	sum := sha256.Sum256([]byte(`{"allowQuit":false,"startURL":"https://exam.example.com"}`))
	if got, want := strings.TrimSpace(out.String()), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("config-key = %s, want %s", got, want)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	sealed := filepath.Join(dir, "exam.seb")

	var out, errOut bytes.Buffer
	if code := run([]string{"seal", "--in", cfg, "--out", sealed, "--password", "pw"}, &out, &errOut); code != 0 {
		t.Fatalf("seal exited %d: %s", code, errOut.String())
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "baf") {
		t.Fatalf("seal did not print an artifact ID: %q", out.String())
	}

	var xmlOut bytes.Buffer
	errOut.Reset()
	if code := run([]string{"open", "--in", sealed, "--password", "pw"}, &xmlOut, &errOut); code != 0 {
		t.Fatalf("open exited %d: %s", code, errOut.String())
	}
	if !strings.Contains(xmlOut.String(), "<key>startURL</key>") {
		t.Fatalf("opened XML missing startURL:\n%s", xmlOut.String())
	}

	errOut.Reset()
	if code := run([]string{"open", "--in", sealed}, &bytes.Buffer{}, &errOut); code == 0 {
		t.Fatalf("open without password must fail")
	}
	if !strings.Contains(errOut.String(), "Password required") {
		t.Fatalf("open without password: %s", errOut.String())
	}
}

func TestVerifyCommand(t *testing.T) {
	const (
		url = "https://exam.example.com/quiz/1"
		key = "0f31a093ebe7ed4aa3da18b90cfccbeca4f2b726bac7a85eae06e6bbc06378a0"
	)
	var hashOut bytes.Buffer
	if code := run([]string{"request-hash", "--url", url + "#frag", "--key", key}, &hashOut, &bytes.Buffer{}); code != 0 {
		t.Fatalf("request-hash failed")
	}
	hash := strings.TrimSpace(hashOut.String())

	if code := run([]string{"verify", "--url", url, "--key", key, "--hash", hash}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
		t.Fatalf("verify rejected a matching hash")
	}
	if code := run([]string{"verify", "--url", url, "--key", key, "--hash", "deadbeef"}, &bytes.Buffer{}, &bytes.Buffer{}); code == 0 {
		t.Fatalf("verify accepted a garbled hash")
	}
}

func TestStoreAndAttestFlow(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	sealed := filepath.Join(dir, "exam.seb")
	if code := run([]string{"seal", "--in", cfg, "--out", sealed}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
		t.Fatalf("seal failed")
	}

	root := filepath.Join(dir, "store")
	var putOut bytes.Buffer
	if code := run([]string{"store", "put", "--root", root, "--in", sealed}, &putOut, &bytes.Buffer{}); code != 0 {
		t.Fatalf("store put failed")
	}
	id := strings.TrimSpace(putOut.String())

	if code := run([]string{"store", "has", "--root", root, "--id", id}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
		t.Fatalf("store has reported absent")
	}

	fetched := filepath.Join(dir, "fetched.seb")
	if code := run([]string{"store", "get", "--root", root, "--id", id, "--out", fetched}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
		t.Fatalf("store get failed")
	}
	a, _ := os.ReadFile(sealed)
	b, _ := os.ReadFile(fetched)
	if !bytes.Equal(a, b) {
		t.Fatalf("store round trip mismatch")
	}

	att := filepath.Join(dir, "exam.att")
	seed := strings.Repeat("a1", 32)
	if code := run([]string{"attest", "--artifact", sealed, "--seed-hex", seed, "--out", att}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
		t.Fatalf("attest failed")
	}
	var verifyOut bytes.Buffer
	if code := run([]string{"attest-verify", att}, &verifyOut, &bytes.Buffer{}); code != 0 {
		t.Fatalf("attest-verify failed: %s", verifyOut.String())
	}
	if !strings.Contains(verifyOut.String(), id) {
		t.Fatalf("attest-verify output missing artifact ID: %s", verifyOut.String())
	}
}
