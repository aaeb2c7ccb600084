package cache

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const blobDir = "blobs"

// Blobs is the content-addressed measurement store. Keys are the SHA-256 of
// the exact measurement text; identical content is stored exactly once.
type Blobs struct {
	dir string
}

// NewBlobs opens (creating if needed) the blob store under dir.
func NewBlobs(dir string) (*Blobs, error) {
	d := filepath.Join(dir, blobDir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Blobs{dir: d}, nil
}

// HashText returns the content address for a measurement text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Has reports whether a blob exists for the hash.
func (b *Blobs) Has(hash string) bool {
	_, err := os.Stat(b.blobPath(hash))
	return err == nil
}

// Save stores text under its content hash and returns the hash. Existing
// blobs are never rewritten: same hash, same bytes.
func (b *Blobs) Save(text string) (string, error) {
	hash := HashText(text)
	path := b.blobPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("compress blob: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress blob: %w", err)
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return hash, nil
}

// Load returns the measurement text stored under hash.
func (b *Blobs) Load(hash string) (string, error) {
	f, err := os.Open(b.blobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrBlobNotFound, hash)
		}
		return "", fmt.Errorf("open blob: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("decompress blob %s: %w", hash, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("decompress blob %s: %w", hash, err)
	}
	return string(data), nil
}

func (b *Blobs) blobPath(hash string) string {
	return filepath.Join(b.dir, hash+".gz")
}
