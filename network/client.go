// Package network provides the fetch capability shared by every source and embed driver.
package network

import (
	"net/http"
	"time"

	"github.com/cinesrc/cinesrc/key"
	"github.com/spf13/viper"
)

// Client is the HTTP client shared across the application for efficient connection reuse.
// It is configured with increased concurrency limits and reasonable timeouts tailored for scraping workflows.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}

// NewFromConfig builds the fetcher described by the network.* configuration keys.
func NewFromConfig() *HTTPFetcher {
	client := &http.Client{
		Timeout:   time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second,
		Transport: Client.Transport,
	}

	if viper.GetBool(key.NetworkTLSFingerprint) {
		client.Transport = NewFingerprintTransport()
	}

	return NewHTTPFetcher(client, viper.GetString(key.NetworkUserAgent))
}
