package mediakey

import (
	"bytes"
	"testing"

	"wa_outbound/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seed = bytes.Repeat([]byte{0x5a}, SeedSize)

func TestDeriveSizes(t *testing.T) {
	k, err := Derive(seed, model.MessageTypeImage)
	require.NoError(t, err)

	assert.Len(t, k.IV, 16)
	assert.Len(t, k.CipherKey, 32)
	assert.Len(t, k.MACKey, 32)
	assert.Len(t, k.RefKey, 32)
}

func TestDeriveDeterministic(t *testing.T) {
	a, err := Derive(seed, model.MessageTypeVideo)
	require.NoError(t, err)
	b, err := Derive(seed, model.MessageTypeVideo)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDeriveSeparatesTypes(t *testing.T) {
	types := []model.MessageType{
		model.MessageTypeImage,
		model.MessageTypeVideo,
		model.MessageTypeAudio,
		model.MessageTypeDocument,
	}

	seen := map[string]model.MessageType{}
	for _, typ := range types {
		k, err := Derive(seed, typ)
		require.NoError(t, err)
		prev, dup := seen[string(k.CipherKey)]
		assert.False(t, dup, "%s collides with %s", typ, prev)
		seen[string(k.CipherKey)] = typ
	}

	img, _ := Derive(seed, model.MessageTypeImage)
	sticker, _ := Derive(seed, model.MessageTypeSticker)
	assert.Equal(t, img.CipherKey, sticker.CipherKey)
}

func TestDeriveRejects(t *testing.T) {
	_, err := Derive(seed[:31], model.MessageTypeImage)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = Derive(seed, model.MessageTypeExtendedText)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 16, 33} {
		plain := bytes.Repeat([]byte{byte(size)}, size)

		k, err := Derive(seed, model.MessageTypeDocument)
		require.NoError(t, err)

		body, err := k.Encrypt(plain)
		require.NoError(t, err)
		assert.Zero(t, (len(body)-MACSize)%16)

		got, err := Decrypt(seed, model.MessageTypeDocument, body)
		require.NoError(t, err)
		assert.Equal(t, plain, got, "size %d", size)
	}
}

func TestDecryptRejectsTamperedBody(t *testing.T) {
	k, err := Derive(seed, model.MessageTypeAudio)
	require.NoError(t, err)
	body, err := k.Encrypt([]byte("voice note"))
	require.NoError(t, err)

	body[0] ^= 0xff
	_, err = k.Decrypt(body)
	assert.ErrorIs(t, err, ErrMAC)

	_, err = k.Decrypt(body[:5])
	assert.Error(t, err)
}

func TestDecryptWrongType(t *testing.T) {
	k, err := Derive(seed, model.MessageTypeImage)
	require.NoError(t, err)
	body, err := k.Encrypt([]byte("photo"))
	require.NoError(t, err)

	_, err = Decrypt(seed, model.MessageTypeVideo, body)
	assert.ErrorIs(t, err, ErrMAC)
}

func TestDestroy(t *testing.T) {
	k, err := Derive(seed, model.MessageTypeImage)
	require.NoError(t, err)
	k.Destroy()

	assert.Equal(t, make([]byte, 32), k.CipherKey)
	assert.Equal(t, make([]byte, 16), k.IV)
}
