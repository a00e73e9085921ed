package kdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF fills buffer with HKDF-SHA256(secret, salt, info). A nil salt is a
// zero-filled salt of hash length.
func HKDF(secret, salt, info, buffer []byte) (int, error) {
	h := hkdf.New(sha256.New, secret, salt, info)
	return io.ReadFull(h, buffer)
}

// Expand returns n bytes of HKDF-SHA256 output with an empty salt.
func Expand(secret []byte, info string, n int) ([]byte, error) {
	buffer := make([]byte, n)
	if _, err := HKDF(secret, nil, []byte(info), buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}
