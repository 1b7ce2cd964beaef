package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// DecodeDataKey decodes a base64 data encryption key (32 bytes after decoding).
func DecodeDataKey(b64 string) ([]byte, error) {
	dek, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, errors.New("failed to decode data key: " + err.Error())
	}
	if len(dek) != 32 {
		return nil, errors.New("data key must be 32 bytes (base64-encoded)")
	}
	return dek, nil
}

// Sealer encrypts values with AES-256-GCM and a random nonce.
type Sealer struct {
	gcm cipher.AEAD
}

func NewSealer(dek []byte) (*Sealer, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{gcm: gcm}, nil
}

// Encrypt returns nonce || ciphertext.
func (s *Sealer) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext using AES-256-GCM
func (s *Sealer) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return s.gcm.Open(nil, nonce, ct, nil)
}

// SealedStore encrypts values at rest. Keys stay in the clear so prefix
// iteration keeps working.
type SealedStore struct {
	inner  Store
	sealer *Sealer
}

func NewSealedStore(inner Store, dek []byte) (*SealedStore, error) {
	sealer, err := NewSealer(dek)
	if err != nil {
		return nil, fmt.Errorf("init sealer: %w", err)
	}
	return &SealedStore{inner: inner, sealer: sealer}, nil
}

func (s *SealedStore) Get(key []byte) ([]byte, error) {
	enc, err := s.inner.Get(key)
	if err != nil {
		return nil, err
	}
	dec, err := s.sealer.Decrypt(enc)
	if err != nil {
		return nil, fmt.Errorf("decrypt %q: %w", key, err)
	}
	return dec, nil
}

func (s *SealedStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return s.inner.Iterate(prefix, func(key, value []byte) error {
		dec, err := s.sealer.Decrypt(value)
		if err != nil {
			return fmt.Errorf("decrypt %q: %w", key, err)
		}
		return fn(key, dec)
	})
}

func (s *SealedStore) Write(batch *Batch) error {
	sealed := NewBatch()
	err := batch.Replay(func(key, value []byte, deleted bool) error {
		if deleted {
			sealed.Delete(key)
			return nil
		}
		enc, err := s.sealer.Encrypt(value)
		if err != nil {
			return err
		}
		sealed.Put(key, enc)
		return nil
	})
	if err != nil {
		return fmt.Errorf("encrypt batch: %w", err)
	}
	return s.inner.Write(sealed)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
