package source

import "golang.org/x/exp/slices"

// Flag is a playback capability marker carried by drivers and streams.
type Flag string

const (
	// FlagCORSAllowed marks streams that can be fetched cross-origin from a browser.
	FlagCORSAllowed Flag = "cors-allowed"
	// FlagIPLocked marks streams that only play from the IP address that resolved them.
	FlagIPLocked Flag = "ip-locked"
	// FlagCFBlocked marks streams fronted by a challenge page.
	FlagCFBlocked Flag = "cf-blocked"
)

// Flags is an ordered set of flags.
type Flags []Flag

// NewFlags builds a set, dropping duplicates.
func NewFlags(flags ...Flag) Flags {
	set := make(Flags, 0, len(flags))
	for _, f := range flags {
		if !set.Has(f) {
			set = append(set, f)
		}
	}
	return set
}

// Has reports whether f is in the set.
func (fs Flags) Has(f Flag) bool {
	return slices.Contains(fs, f)
}

// Without returns a copy of the set minus the given flags.
func (fs Flags) Without(drop ...Flag) Flags {
	out := make(Flags, 0, len(fs))
	for _, f := range fs {
		if !slices.Contains(drop, f) {
			out = append(out, f)
		}
	}
	return out
}

// StreamType tells how a stream is delivered.
type StreamType string

const (
	HLS  StreamType = "hls"
	File StreamType = "file"
)

// CaptionType is a subtitle container format.
type CaptionType string

const (
	SRT CaptionType = "srt"
	VTT CaptionType = "vtt"
)

// Caption is a subtitle track with a recognised language and format.
type Caption struct {
	ID                  string      `json:"id"`
	Language            string      `json:"language"`
	Type                CaptionType `json:"type"`
	URL                 string      `json:"url"`
	HasCorsRestrictions bool        `json:"hasCorsRestrictions"`
}

// ThumbnailTrack is a seek-preview track.
type ThumbnailTrack struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Quality labels a progressive file variant.
type Quality string

const (
	QualityUnknown Quality = "unknown"
	Quality360     Quality = "360"
	Quality480     Quality = "480"
	Quality720     Quality = "720"
	Quality1080    Quality = "1080"
	Quality4K      Quality = "4k"
)

// FileVariant is one progressive download of a file stream.
type FileVariant struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Stream is the normalized, playable output of an embed or source.
type Stream struct {
	// ID is unique within the streams returned by one driver call.
	ID   string     `json:"id"`
	Type StreamType `json:"type"`
	// Playlist is set for HLS streams.
	Playlist string `json:"playlist,omitempty"`
	// Qualities is set for file streams.
	Qualities map[Quality]FileVariant `json:"qualities,omitempty"`
	Captions  []Caption               `json:"captions"`
	Flags     Flags                   `json:"flags"`
	// Headers must be sent on every manifest and segment request.
	Headers map[string]string `json:"headers,omitempty"`
	// PreferredHeaders should be sent when the player is able to.
	PreferredHeaders map[string]string `json:"preferredHeaders,omitempty"`
	ThumbnailTrack   *ThumbnailTrack   `json:"thumbnailTrack,omitempty"`
}

// IsValid reports whether the stream carries a playable locator.
func (s Stream) IsValid() bool {
	switch s.Type {
	case HLS:
		return s.Playlist != ""
	case File:
		for _, v := range s.Qualities {
			if v.URL != "" {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Locator returns the playlist, or the best file variant of a file stream.
func (s Stream) Locator() string {
	if s.Type == HLS {
		return s.Playlist
	}
	for _, q := range []Quality{Quality4K, Quality1080, Quality720, Quality480, Quality360, QualityUnknown} {
		if v, ok := s.Qualities[q]; ok && v.URL != "" {
			return v.URL
		}
	}
	return ""
}
