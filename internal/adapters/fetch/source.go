package fetch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/okian/squigscan/internal/cryptojs"
	"github.com/okian/squigscan/pkg/metrics"
)

// Source yields measurement text for a file name under one domain's base.
// The scanner's fallback chains try sources with different suffixes in a
// fixed order; a Source only knows how to fetch, not which files exist.
type Source interface {
	// Measurement fetches the named file, e.g. "Aria L.txt".
	Measurement(ctx context.Context, file string) (string, error)
}

// PlainSource fetches measurement files straight from {base}/data/{file}.
type PlainSource struct {
	Client *Client
	Base   string
}

// Measurement implements Source.
func (s *PlainSource) Measurement(ctx context.Context, file string) (string, error) {
	return s.Client.GetMeasurement(ctx, s.Base+"/data/"+url.PathEscape(file))
}

// EncryptedSource fetches through a decrypting proxy: a POST carries the
// target path plus a freshly generated random key, and the response is a
// ciphertext envelope keyed on that same key.
type EncryptedSource struct {
	Client   *Client
	ProxyURL string
}

// Measurement implements Source.
func (s *EncryptedSource) Measurement(ctx context.Context, file string) (string, error) {
	key := uuid.NewString()
	form := url.Values{
		"f_p": {"data/" + file},
		"k":   {key},
	}
	body, err := s.Client.PostForm(ctx, s.ProxyURL, form.Encode())
	if err != nil {
		return "", err
	}
	text, err := cryptojs.Decrypt(body, key)
	if err != nil {
		metrics.RecordDecryptFailure()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, nil
}
