package mediakey

import (
	"crypto/hmac"
	"errors"
	"fmt"

	"wa_outbound/internal/cryptographic/encryption"
	"wa_outbound/internal/cryptographic/kdf"
	"wa_outbound/internal/model"
)

const (
	SeedSize   = 32
	MACSize    = 10
	expandSize = 112
)

var ErrMAC = errors.New("media mac mismatch")

// Keys is the per-message material expanded from one random seed.
type Keys struct {
	IV        []byte // 16 bytes
	CipherKey []byte // 32 bytes
	MACKey    []byte // 32 bytes
	RefKey    []byte // 32 bytes
}

// Info returns the HKDF domain string for a media type. Stickers share the
// image domain on the wire.
func Info(t model.MessageType) (string, error) {
	switch t {
	case model.MessageTypeImage, model.MessageTypeSticker:
		return "WhatsApp Image Keys", nil
	case model.MessageTypeVideo:
		return "WhatsApp Video Keys", nil
	case model.MessageTypeAudio:
		return "WhatsApp Audio Keys", nil
	case model.MessageTypeDocument:
		return "WhatsApp Document Keys", nil
	}
	return "", model.NewValidationError("type", fmt.Sprintf("%s is not a media type", t))
}

// Derive expands seed into media keys for t.
func Derive(seed []byte, t model.MessageType) (*Keys, error) {
	if len(seed) != SeedSize {
		return nil, model.NewValidationError("media key", fmt.Sprintf("seed must be %d bytes, got %d", SeedSize, len(seed)))
	}

	info, err := Info(t)
	if err != nil {
		return nil, err
	}

	buf, err := kdf.Expand(seed, info, expandSize)
	if err != nil {
		return nil, err
	}

	return &Keys{
		IV:        buf[:16],
		CipherKey: buf[16:48],
		MACKey:    buf[48:80],
		RefKey:    buf[80:112],
	}, nil
}

// Encrypt returns ciphertext || first 10 bytes of HMAC(iv || ciphertext).
func (k *Keys) Encrypt(plaintext []byte) ([]byte, error) {
	ct, err := encryption.CBCEncrypt(k.CipherKey, k.IV, plaintext)
	if err != nil {
		return nil, err
	}
	mac := encryption.HMACSHA256(k.MACKey, k.IV, ct)[:MACSize]
	return append(ct, mac...), nil
}

// Decrypt verifies the trailing mac of body and decrypts it.
func (k *Keys) Decrypt(body []byte) ([]byte, error) {
	if len(body) < MACSize {
		return nil, fmt.Errorf("media body too short: %d bytes", len(body))
	}
	ct, mac := body[:len(body)-MACSize], body[len(body)-MACSize:]

	want := encryption.HMACSHA256(k.MACKey, k.IV, ct)[:MACSize]
	if !hmac.Equal(mac, want) {
		return nil, ErrMAC
	}
	return encryption.CBCDecrypt(k.CipherKey, k.IV, ct)
}

// Destroy zeroes the key material. The struct must not be used afterwards.
func (k *Keys) Destroy() {
	for _, b := range [][]byte{k.IV, k.CipherKey, k.MACKey, k.RefKey} {
		clear(b)
	}
}

// Decrypt derives keys from seed and decrypts an uploaded media body.
func Decrypt(seed []byte, t model.MessageType, body []byte) ([]byte, error) {
	keys, err := Derive(seed, t)
	if err != nil {
		return nil, err
	}
	defer keys.Destroy()
	return keys.Decrypt(body)
}
