package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// ErrDecode wraps bodies that could not be decoded as JSON.
var ErrDecode = errors.New("undecodable response")

// Text fetches rawURL and returns the body as a string.
func Text(ctx context.Context, f Fetcher, rawURL string, opts Options) (string, error) {
	resp, err := f.Fetch(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// JSON fetches rawURL and decodes the body into T.
func JSON[T any](ctx context.Context, f Fetcher, rawURL string, opts Options) (T, error) {
	var v T

	resp, err := f.Fetch(ctx, rawURL, opts)
	if err != nil {
		return v, err
	}

	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("%s: %w: %w", resp.FinalURL, ErrDecode, err)
	}
	return v, nil
}

// Document fetches rawURL and parses the body as HTML.
func Document(ctx context.Context, f Fetcher, rawURL string, opts Options) (*goquery.Document, error) {
	resp, err := f.Fetch(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	return Parse(resp.Body)
}

// Parse reads an HTML document from an already fetched body.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
