package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNumberCipherRoundTrip(t *testing.T) {
	cipher, err := NewNumberCipher(testKey)
	require.NoError(t, err)

	sealed, err := cipher.Seal("A1234567")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "A1234567")

	opened, err := cipher.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "A1234567", opened)
}

func TestNumberCipherSealIsNonDeterministic(t *testing.T) {
	cipher, err := NewNumberCipher(testKey)
	require.NoError(t, err)

	first, err := cipher.Seal("A1234567")
	require.NoError(t, err)
	second, err := cipher.Seal("A1234567")
	require.NoError(t, err)

	// Fresh nonce per seal; identical numbers must not produce identical rows.
	assert.NotEqual(t, first, second)
}

func TestNewNumberCipherRejectsBadKeys(t *testing.T) {
	_, err := NewNumberCipher("not-hex")
	assert.Error(t, err)

	_, err = NewNumberCipher("abcd")
	assert.Error(t, err)
}

func TestNumberCipherOpenRejectsGarbage(t *testing.T) {
	cipher, err := NewNumberCipher(testKey)
	require.NoError(t, err)

	_, err = cipher.Open("%%%")
	assert.Error(t, err)

	_, err = cipher.Open("dG9vc2hvcnQ=")
	assert.Error(t, err)
}

func TestNumberCipherOpenRejectsWrongKey(t *testing.T) {
	cipher, err := NewNumberCipher(testKey)
	require.NoError(t, err)
	other, err := NewNumberCipher(strings.Repeat("ff", 32))
	require.NoError(t, err)

	sealed, err := cipher.Seal("A1234567")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)
}
