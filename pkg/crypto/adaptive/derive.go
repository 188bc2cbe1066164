package adaptive

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the size of keys produced by DeriveKey.
const KeySize = 32

// DeriveKey expands material into a KeySize key with HKDF-SHA256.
//
// The same material, salt and info always yield the same key.
func DeriveKey(material, salt, info []byte) ([]byte, error) {
	if len(material) == 0 {
		return nil, errors.New("adaptive: empty key material")
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, salt, info), key); err != nil {
		return nil, fmt.Errorf("adaptive: derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext and returns it base64 encoded.
func Seal(c Cipher, plaintext, additionalData []byte) (string, error) {
	ct, err := c.Encrypt(plaintext, additionalData)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Open decodes and decrypts a value produced by Seal.
func Open(c Cipher, sealed string, additionalData []byte) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("adaptive: decode: %w", err)
	}
	return c.Decrypt(ct, additionalData)
}
