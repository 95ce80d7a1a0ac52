package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenRoundTrip(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	require.True(t, svc.Configured())

	plain := []byte("%PDF-1.3 test payload")
	sealed, err := svc.Seal(plain, []byte("blob:1"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, plain))

	opened, err := svc.Open(sealed, []byte("blob:1"))
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestOpenRejectsWrongAdditionalData(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)

	sealed, err := svc.Seal([]byte("payload"), []byte("blob:1"))
	require.NoError(t, err)

	_, err = svc.Open(sealed, []byte("blob:2"))
	assert.Error(t, err)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	out, err := svc.Seal([]byte("plain"), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out)
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New("too-short")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = New(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewAcceptsBase64Key(t *testing.T) {
	svc, err := New(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	require.NoError(t, err)
	assert.True(t, svc.Configured())
}

func TestOpenTooShort(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	_, err = svc.Open([]byte("abc"), nil)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
