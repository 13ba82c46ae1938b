// Package caption turns the subtitle tracks sites expose into source.Caption values.
// Tracks with an unknown language or format are skipped, never failed.
package caption

import (
	"net/url"
	"path"
	"strings"
	"sync"
	"unicode"

	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// TypeFromURL detects the caption format from the path extension of u.
func TypeFromURL(u string) (source.CaptionType, bool) {
	p := u
	if parsed, err := url.Parse(u); err == nil {
		p = parsed.Path
	} else if i := strings.IndexAny(u, "?#"); i >= 0 {
		p = u[:i]
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".srt":
		return source.SRT, true
	case ".vtt":
		return source.VTT, true
	default:
		return "", false
	}
}

type languageTables struct {
	// names holds lower-cased English and native language names.
	names map[string]string
	// codes holds current ISO 639-1 codes only; withdrawn ones such as "iw" are absent.
	codes map[string]string
}

var languages = sync.OnceValue(func() languageTables {
	t := languageTables{names: make(map[string]string), codes: make(map[string]string)}
	english := display.English.Languages()

	for a := 'a'; a <= 'z'; a++ {
		for b := 'a'; b <= 'z'; b++ {
			code := string([]rune{a, b})
			if _, err := language.ParseBase(code); err != nil {
				continue
			}
			tag := (language.Deprecated | language.Legacy).Make(code)
			if base, _ := tag.Base(); base.String() != code {
				continue
			}
			t.codes[code] = code

			for _, name := range []string{english.Name(tag), display.Self.Name(tag)} {
				name = strings.ToLower(strings.TrimSpace(name))
				if name == "" {
					continue
				}
				if _, taken := t.names[name]; !taken {
					t.names[name] = code
				}
			}
		}
	}
	return t
})

// LanguageFromLabel maps a display label such as "English - SDH" or "Español"
// onto an ISO 639-1 code. A bare code is accepted only as the whole label.
func LanguageFromLabel(label string) (string, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "", false
	}

	table := languages()
	if code, ok := table.names[label]; ok {
		return code, true
	}
	if code, ok := table.codes[label]; ok {
		return code, true
	}

	word := strings.FieldsFunc(label, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '(' || r == '[' || r == ','
	})
	if len(word) == 0 {
		return "", false
	}

	leading := strings.TrimFunc(word[0], func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	code, ok := table.names[leading]
	return code, ok
}

// FromTrack builds a caption from a labelled subtitle file.
// It reports false when either the language or the format is unrecognized.
func FromTrack(label, u string) (source.Caption, bool) {
	if u == "" {
		return source.Caption{}, false
	}

	typ, ok := TypeFromURL(u)
	if !ok {
		return source.Caption{}, false
	}

	lang, ok := LanguageFromLabel(label)
	if !ok {
		return source.Caption{}, false
	}

	return source.Caption{
		ID:       u,
		Language: lang,
		Type:     typ,
		URL:      u,
	}, true
}

// Sanitize drops captions that FromTrack would not produce and repeats of
// an already seen id. Applying it twice yields the same list.
func Sanitize(captions []source.Caption) []source.Caption {
	valid := lo.Filter(captions, func(c source.Caption, _ int) bool {
		if c.ID == "" || c.URL == "" || c.Language == "" {
			return false
		}
		typ, ok := TypeFromURL(c.URL)
		return ok && typ == c.Type
	})

	return lo.UniqBy(valid, func(c source.Caption) string {
		return c.ID
	})
}
