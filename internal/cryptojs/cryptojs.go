// Package cryptojs decrypts the JSON ciphertext envelopes served by proxied
// measurement sources. The scheme mirrors CryptoJS' OpenSSL-compatible
// AES-256-CBC mode: the key (and IV when the envelope carries none) is
// derived from passphrase+salt with the iterated-MD5 EVP_BytesToKey
// construction, and the decrypted plaintext is itself a JSON string literal
// that must be parsed a second time to yield the payload.
package cryptojs

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec // EVP_BytesToKey is MD5 by definition; required for wire compatibility
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	keySize = 32 // AES-256
	ivSize  = aes.BlockSize
)

// Envelope is the wire shape returned by encrypting proxies.
type Envelope struct {
	CT   string `json:"ct"` // base64 ciphertext
	IV   string `json:"iv"` // hex IV
	Salt string `json:"s"`  // hex salt
}

// EVPBytesToKey derives keyLen+ivLen bytes from passphrase and salt by
// repeatedly hashing previous-digest||passphrase||salt with MD5 until enough
// key material exists, per OpenSSL's EVP_BytesToKey.
func EVPBytesToKey(passphrase, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var material []byte
	var prev []byte
	for len(material) < keyLen+ivLen {
		h := md5.New() //nolint:gosec // see package note
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		material = append(material, prev...)
	}
	return material[:keyLen], material[keyLen : keyLen+ivLen]
}

// Decrypt opens an envelope with the given passphrase and returns the final
// payload after the double JSON parse. Every failure mode wraps ErrDecrypt;
// callers treat it as "measurement unavailable".
func Decrypt(envelopeJSON []byte, passphrase string) (string, error) {
	var env Envelope
	if err := json.Unmarshal(envelopeJSON, &env); err != nil {
		return "", fmt.Errorf("%w: malformed envelope: %v", ErrDecrypt, err)
	}
	return DecryptEnvelope(env, passphrase)
}

// DecryptEnvelope decrypts an already-parsed envelope.
func DecryptEnvelope(env Envelope, passphrase string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(env.CT)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding: %v", ErrDecrypt, err)
	}
	salt, err := hex.DecodeString(env.Salt)
	if err != nil {
		return "", fmt.Errorf("%w: bad salt encoding: %v", ErrDecrypt, err)
	}

	key, derivedIV := EVPBytesToKey([]byte(passphrase), salt, keySize, ivSize)
	iv := derivedIV
	if env.IV != "" {
		iv, err = hex.DecodeString(env.IV)
		if err != nil {
			return "", fmt.Errorf("%w: bad iv encoding: %v", ErrDecrypt, err)
		}
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecrypt, ivSize, len(iv))
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d not a block multiple", ErrDecrypt, len(ct))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	plain, err = stripPKCS7(plain)
	if err != nil {
		return "", err
	}

	// The plaintext is a JSON string literal wrapping the real payload.
	var payload string
	if err := json.Unmarshal(plain, &payload); err != nil {
		return "", fmt.Errorf("%w: plaintext is not a JSON string: %v", ErrDecrypt, err)
	}
	return payload, nil
}

func stripPKCS7(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}
	pad := int(b[len(b)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
	}
	for _, c := range b[len(b)-pad:] {
		if int(c) != pad {
			return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
		}
	}
	return b[:len(b)-pad], nil
}
