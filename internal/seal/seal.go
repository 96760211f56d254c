// Package seal provides authenticated encryption for Local Blob Store
// payloads. It is grounded in the teacher's internal/block.blockCipher, but
// upgraded from unauthenticated AES-CTR to AES-GCM: the LBS contract
// (spec.md §6) calls it an "authenticated-encrypted blob store", which
// AES-CTR alone cannot provide since it has no integrity check.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// Seal encrypts plaintext with key (which must be 16, 24 or 32 bytes,
// matching AES-128/192/256) and returns nonce||ciphertext||tag.
func Seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("seal.Seal: reading nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// ErrAuthentication is returned by Open when the ciphertext has been
// tampered with or the wrong key was used.
var ErrAuthentication = fmt.Errorf("seal: message authentication failed")

// Open reverses Seal: it validates the authentication tag before returning
// any plaintext.
func Open(key, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("seal.Open: ciphertext shorter than nonce")
	}
	nonce, ciphertext := sealed[:n], sealed[n:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("seal.Open: %w: %w", ErrAuthentication, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("seal: new AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("seal: new GCM: %w", err)
	}
	return gcm, nil
}
