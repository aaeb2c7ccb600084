package cryptojs

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Encrypt produces an envelope that Decrypt can open: the payload is JSON
// string-encoded, PKCS#7 padded, and AES-256-CBC encrypted under a key
// derived from passphrase and a random 8-byte salt. Used by round-trip tests
// and local fixture tooling; production scans only ever decrypt.
func Encrypt(payload, passphrase string) (Envelope, error) {
	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return Envelope{}, fmt.Errorf("generate salt: %w", err)
	}
	return EncryptWithSalt(payload, passphrase, salt)
}

// EncryptWithSalt is Encrypt with a caller-supplied salt, for deterministic
// fixtures.
func EncryptWithSalt(payload, passphrase string, salt []byte) (Envelope, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}

	key, iv := EVPBytesToKey([]byte(passphrase), salt, keySize, ivSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return Envelope{}, fmt.Errorf("init cipher: %w", err)
	}

	padded := padPKCS7(plain)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	return Envelope{
		CT:   base64.StdEncoding.EncodeToString(ct),
		IV:   hex.EncodeToString(iv),
		Salt: hex.EncodeToString(salt),
	}, nil
}

func padPKCS7(b []byte) []byte {
	pad := aes.BlockSize - len(b)%aes.BlockSize
	out := make([]byte, len(b)+pad)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}
