package credential

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errOpenFailed = errors.New("secret could not be opened")

// Sealer encrypts credential secrets at rest. The nonce is stored in front
// of the box.
type Sealer struct {
	key *[32]byte
}

func NewSealer(key *[32]byte) *Sealer {
	return &Sealer{key: key}
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, s.key), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errOpenFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, s.key)
	if !ok {
		return nil, errOpenFailed
	}
	return out, nil
}
