package container

import (
	"errors"
	"fmt"
)

// ErrPasswordRequired is returned when an encrypted container is decoded
// without a password. The message is part of the protocol surface shown to
// users and must stay stable.
var ErrPasswordRequired = errors.New("Password required for encrypted SEB file")

// ErrDecrypt is the generic decryption failure. A wrong password is
// indistinguishable from corrupted ciphertext and surfaces this way.
var ErrDecrypt = errors.New("container: decryption failed")

// FormatError reports a container whose 4-byte tag is neither "plnd" nor
// "pwcc".
type FormatError struct {
	Tag string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("container: unrecognized SEB container tag %q", e.Tag)
}

// IsFormatError reports whether err is (or wraps) a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
