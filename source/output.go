package source

import (
	"fmt"
	"net/url"
)

// EmbedRef points an embed driver at a URL discovered by a source.
type EmbedRef struct {
	EmbedID string `json:"embedId"`
	URL     string `json:"url"`
}

// Validate checks the URL is absolute and dereferenceable.
func (r EmbedRef) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("embed %s: %w", r.EmbedID, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("embed %s: url %q is not absolute", r.EmbedID, r.URL)
	}
	return nil
}

// Output is what a source returns: embed references to resolve, or streams
// the source already holds.
type Output struct {
	Embeds []EmbedRef `json:"embeds,omitempty"`
	Stream []Stream   `json:"stream,omitempty"`
}

// EmbedOutput is what an embed returns.
type EmbedOutput struct {
	Stream []Stream `json:"stream"`
}
