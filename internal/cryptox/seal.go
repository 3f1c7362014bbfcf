package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
)

// KeySize is the AES-256 key length expected by NewSealer.
const KeySize = 32

// ErrInvalidKey is returned by NewSealer for keys of the wrong length.
var ErrInvalidKey = errors.New("sealing key must be 32 bytes")

// Sealer encrypts small secrets (pending passwords awaiting sync) with
// AES-GCM. Each Seal call draws a fresh 12-byte nonce which the caller stores
// next to the ciphertext.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns the ciphertext and nonce.
func (s *Sealer) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = common.GenerateRandByteArray(s.aead.NonceSize())
	ciphertext = s.aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Open reverses Seal. It fails if the ciphertext was tampered with or sealed
// under a different key.
func (s *Sealer) Open(ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, errors.New("invalid nonce size")
	}
	return s.aead.Open(nil, nonce, ciphertext, nil)
}
