package util

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// NumberCipher seals document numbers before they touch the store. Opening
// happens only at the provider call boundary; sealed values are safe to
// persist and must never be logged in the clear.
type NumberCipher struct {
	key []byte
}

// NewNumberCipher expects a 32-byte key, hex encoded.
func NewNumberCipher(hexKey string) (*NumberCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "document cipher key is not valid hex")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("document cipher key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	return &NumberCipher{key: key}, nil
}

func (nc *NumberCipher) Seal(plain string) (string, error) {
	aead, err := chacha20poly1305.NewX(nc.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (nc *NumberCipher) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrap(err, "sealed document number is not valid base64")
	}

	aead, err := chacha20poly1305.NewX(nc.key)
	if err != nil {
		return "", err
	}

	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed document number is truncated")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, "unable to open sealed document number")
	}

	return string(plain), nil
}
