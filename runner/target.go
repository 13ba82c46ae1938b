package runner

import (
	"fmt"

	"github.com/cinesrc/cinesrc/source"
)

// Target is the kind of player the streams are resolved for.
type Target string

const (
	// Native players can send any header and ignore CORS.
	Native Target = "native"
	// Browser players are bound by CORS.
	Browser Target = "browser"
	// BrowserExtension players run in a browser with an extension lifting CORS.
	BrowserExtension Target = "browser-extension"
)

// Targets lists every known target.
var Targets = []Target{Native, Browser, BrowserExtension}

// ParseTarget maps a flag or config value onto a Target.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q", s)
}

// Requires returns the flags a stream or driver must carry to play on t.
func (t Target) Requires() source.Flags {
	if t == Browser {
		return source.NewFlags(source.FlagCORSAllowed)
	}
	return nil
}

// Allows reports whether flags satisfy every requirement of t.
func (t Target) Allows(flags source.Flags) bool {
	for _, f := range t.Requires() {
		if !flags.Has(f) {
			return false
		}
	}
	return true
}
