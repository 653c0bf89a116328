package container

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var sampleXML = []byte(`<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>startURL</key>
	<string>https://exam.example.com</string>
</dict>
</plist>
`)

func TestPlainRoundTrip(t *testing.T) {
	enc, err := EncodePlain(sampleXML)
	if err != nil {
		t.Fatalf("EncodePlain: %v", err)
	}
	got, err := Decode(enc, "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, sampleXML) {
		t.Fatalf("round trip mismatch:\n%s", got)
	}
}

func TestPlainLayoutDoubleCompressed(t *testing.T) {
	enc, err := EncodePlain(sampleXML)
	if err != nil {
		t.Fatalf("EncodePlain: %v", err)
	}
	body, err := decompress(enc)
	if err != nil {
		t.Fatalf("outer frame is not gzip: %v", err)
	}
	if string(body[:4]) != TagPlain {
		t.Fatalf("inner tag = %q, want %q", body[:4], TagPlain)
	}
	inner, err := decompress(body[4:])
	if err != nil {
		t.Fatalf("payload is not gzip: %v", err)
	}
	if !bytes.Equal(inner, sampleXML) {
		t.Fatalf("payload mismatch")
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	enc, err := EncodeEncrypted(sampleXML, "quiz-password")
	if err != nil {
		t.Fatalf("EncodeEncrypted: %v", err)
	}
	got, err := Decode(enc, "quiz-password")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, sampleXML) {
		t.Fatalf("round trip mismatch:\n%s", got)
	}
}

func TestEncryptedLayout(t *testing.T) {
	enc, err := EncodeEncrypted(sampleXML, "pw")
	if err != nil {
		t.Fatalf("EncodeEncrypted: %v", err)
	}
	body, err := decompress(enc)
	if err != nil {
		t.Fatalf("outer frame is not gzip: %v", err)
	}
	if string(body[:4]) != TagPassword {
		t.Fatalf("inner tag = %q, want %q", body[:4], TagPassword)
	}
	// tag || salt(16) || iv(16) || at least one cipher block
	if len(body) < 4+16+16+16 {
		t.Fatalf("frame too short: %d bytes", len(body))
	}
	if (len(body)-4-16-16)%16 != 0 {
		t.Fatalf("ciphertext not block-aligned: %d bytes", len(body)-36)
	}
}

func TestEncryptedSaltAndIVFresh(t *testing.T) {
	a, err := EncodeEncrypted(sampleXML, "pw")
	if err != nil {
		t.Fatalf("EncodeEncrypted: %v", err)
	}
	b, err := EncodeEncrypted(sampleXML, "pw")
	if err != nil {
		t.Fatalf("EncodeEncrypted: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two encodings produced identical bytes")
	}
}

func TestDecodeEncryptedWithoutPassword(t *testing.T) {
	enc, err := EncodeEncrypted(sampleXML, "pw")
	if err != nil {
		t.Fatalf("EncodeEncrypted: %v", err)
	}
	_, err = Decode(enc, "")
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("Decode without password: err = %v, want ErrPasswordRequired", err)
	}
	if err.Error() != "Password required for encrypted SEB file" {
		t.Fatalf("password error message = %q", err.Error())
	}
}

func TestDecodeEncryptedWrongPassword(t *testing.T) {
	enc, err := EncodeEncrypted(sampleXML, "right")
	if err != nil {
		t.Fatalf("EncodeEncrypted: %v", err)
	}
	_, err = Decode(enc, "wrong")
	if err == nil {
		t.Fatalf("expected decryption failure")
	}
	if errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("wrong password must not report ErrPasswordRequired")
	}
	if IsFormatError(err) {
		t.Fatalf("wrong password must not report FormatError")
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	body := append([]byte("plzz"), []byte("whatever")...)
	enc, err := compress(body)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	_, err = Decode(enc, "")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FormatError", err)
	}
	if fe.Tag != "plzz" {
		t.Fatalf("FormatError.Tag = %q, want %q", fe.Tag, "plzz")
	}
	if !strings.Contains(fe.Error(), `"plzz"`) {
		t.Fatalf("FormatError message must name the tag: %q", fe.Error())
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a gzip stream"), ""); err == nil {
		t.Fatalf("expected error for non-gzip input")
	}
}

func TestPadUnpad(t *testing.T) {
	for n := 0; n <= 33; n++ {
		data := bytes.Repeat([]byte{0xAB}, n)
		padded := pad(data, 16)
		if len(padded)%16 != 0 {
			t.Fatalf("len(pad(%d)) = %d", n, len(padded))
		}
		got, err := unpad(padded, 16)
		if err != nil {
			t.Fatalf("unpad(%d): %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("pad/unpad mismatch at %d", n)
		}
	}
	if _, err := unpad(bytes.Repeat([]byte{0}, 16), 16); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("zero padding byte must fail with ErrDecrypt")
	}
	if _, err := unpad([]byte{1, 2, 3}, 16); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("unaligned input must fail with ErrDecrypt")
	}
}
