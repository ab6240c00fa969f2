// Package identity protects the durable identity token. Tokens are sealed
// with a process-wide symmetric key before they are written to the message
// store, so a database leak does not expose raw tokens.
package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ivLength is the AES block size; one fresh IV is drawn per Seal call.
const ivLength = 16

// Cipher seals and unseals identity tokens with AES-256-CTR. The key is
// derived once from a fixed secret; envelopes carry their own IV so that
// sealing the same token twice never yields the same output.
//
// The envelope format is hex(iv) + ":" + hex(ciphertext). There is no
// authentication tag: a tampered envelope decrypts to garbage rather than
// failing. See DESIGN.md.
type Cipher struct {
	key [32]byte
}

// NewCipher derives the process-wide key from secret via SHA-256.
func NewCipher(secret string) *Cipher {
	return &Cipher{key: sha256.Sum256([]byte(secret))}
}

// Seal encrypts token and returns the textual envelope.
func (c *Cipher) Seal(token string) (string, error) {
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("identity: draw iv: %w", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", fmt.Errorf("identity: cipher init: %w", err)
	}

	ct := make([]byte, len(token))
	cipher.NewCTR(block, iv).XORKeyStream(ct, []byte(token))

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

// Unseal decrypts an envelope produced by Seal. A malformed envelope is a
// hard failure: it can only arise from tampering or a programming defect,
// never from normal flow.
func (c *Cipher) Unseal(envelope string) (string, error) {
	ivHex, dataHex, ok := strings.Cut(envelope, ":")
	if !ok {
		return "", fmt.Errorf("identity: malformed envelope: missing separator")
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("identity: malformed envelope iv: %w", err)
	}
	if len(iv) != ivLength {
		return "", fmt.Errorf("identity: malformed envelope: iv length %d", len(iv))
	}

	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", fmt.Errorf("identity: malformed envelope data: %w", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", fmt.Errorf("identity: cipher init: %w", err)
	}

	pt := make([]byte, len(data))
	cipher.NewCTR(block, iv).XORKeyStream(pt, data)
	return string(pt), nil
}
