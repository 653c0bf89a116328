// Package container implements the binary file format that wraps a plist
// XML payload for distribution as a single exam file.
//
// Layout (byte-exact, required for interoperability with deployed clients):
//
//	gzip( tag(4 bytes ASCII) || payload )
//
// where payload is gzip(xml) for the plain tag "plnd", or
//
//	salt(16) || iv(16) || AES256-CBC(PBKDF2-SHA256(password, salt, 10000, 32), iv, gzip(xml))
//
// for the password tag "pwcc". Note the plain form is compressed twice: the
// XML is gzipped, the tag is prepended, and the combined buffer is gzipped
// again. Encoding and decoding are all-or-nothing in memory; no partial
// output is ever returned.
package container

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// TagPlain marks an unencrypted container.
	TagPlain = "plnd"

	// TagPassword marks a password-encrypted container.
	TagPassword = "pwcc"

	tagSize  = 4
	saltSize = 16
	ivSize   = 16

	// kdfIterations and keySize are protocol constants for the PBKDF2
	// derivation. Changing them breaks every existing encrypted file.
	kdfIterations = 10000
	keySize       = 32
)

// EncodePlain frames xml as an unencrypted container.
func EncodePlain(xml []byte) ([]byte, error) {
	inner, err := compress(xml)
	if err != nil {
		return nil, fmt.Errorf("container: compress payload: %w", err)
	}
	body := make([]byte, 0, tagSize+len(inner))
	body = append(body, TagPlain...)
	body = append(body, inner...)
	out, err := compress(body)
	if err != nil {
		return nil, fmt.Errorf("container: compress frame: %w", err)
	}
	return out, nil
}

// EncodeEncrypted frames xml as a password-encrypted container. The salt and
// initialization vector are freshly random per call, so two encodings of the
// same payload never produce the same bytes.
func EncodeEncrypted(xml []byte, password string) ([]byte, error) {
	inner, err := compress(xml)
	if err != nil {
		return nil, fmt.Errorf("container: compress payload: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("container: generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("container: generate iv: %w", err)
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("container: init cipher: %w", err)
	}
	padded := pad(inner, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	body := make([]byte, 0, tagSize+saltSize+ivSize+len(ciphertext))
	body = append(body, TagPassword...)
	body = append(body, salt...)
	body = append(body, iv...)
	body = append(body, ciphertext...)
	out, err := compress(body)
	if err != nil {
		return nil, fmt.Errorf("container: compress frame: %w", err)
	}
	return out, nil
}

// Decode recovers the XML payload from a container. password may be empty
// for plain containers; an encrypted container without a password fails with
// ErrPasswordRequired, and a wrong password surfaces as a decryption error
// wrapping ErrDecrypt (there is no separate integrity check).
func Decode(data []byte, password string) ([]byte, error) {
	body, err := decompress(data)
	if err != nil {
		return nil, fmt.Errorf("container: read frame: %w", err)
	}
	if len(body) < tagSize {
		return nil, &FormatError{Tag: string(body)}
	}
	tag := string(body[:tagSize])
	rest := body[tagSize:]

	switch tag {
	case TagPlain:
		xml, err := decompress(rest)
		if err != nil {
			return nil, fmt.Errorf("container: read payload: %w", err)
		}
		return xml, nil

	case TagPassword:
		if password == "" {
			return nil, ErrPasswordRequired
		}
		return decodeEncrypted(rest, password)

	default:
		return nil, &FormatError{Tag: tag}
	}
}

func decodeEncrypted(body []byte, password string) ([]byte, error) {
	if len(body) < saltSize+ivSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrDecrypt)
	}
	salt := body[:saltSize]
	iv := body[saltSize : saltSize+ivSize]
	ciphertext := body[saltSize+ivSize:]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("container: init cipher: %w", err)
	}
	if len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext not block-aligned", ErrDecrypt)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	inner, err := unpad(plaintext, block.BlockSize())
	if err != nil {
		return nil, err
	}
	xml, err := decompress(inner)
	if err != nil {
		// A wrong password that happens to survive the padding check still
		// yields garbage here.
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return xml, nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, keySize, sha256.New)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// pad applies PKCS#7 block padding.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// unpad strips PKCS#7 padding. Invalid padding is how a wrong password
// manifests, so the failure wraps ErrDecrypt.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", ErrDecrypt)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return data[:len(data)-n], nil
}
