package transcribe

import (
	"regexp"
	"strings"
	"unicode"

	"whisper-xxl-gui/internal/domain"
)

// segmentPattern matches "[MM:SS.mmm --> MM:SS.mmm] text" at line start.
// Runs longer than an hour print an extra "HH:" field.
var segmentPattern = regexp.MustCompile(`^\[(?:\d{2}:)?\d{2}:\d{2}\.\d{3} --> (?:\d{2}:)?\d{2}:\d{2}\.\d{3}\]\s*(.*)`)

// ScriptProfile decides which untimed lines survive extraction: a line is
// kept when it contains at least one rune from Ranges.
type ScriptProfile struct {
	ID     string
	Name   string
	Ranges []*unicode.RangeTable
}

// Keeps reports whether an untimed line belongs to the profile's scripts.
func (p ScriptProfile) Keeps(line string) bool {
	if len(p.Ranges) == 0 {
		return false
	}
	for _, r := range line {
		if unicode.IsOneOf(p.Ranges, r) {
			return true
		}
	}
	return false
}

// japaneseRanges covers CJK punctuation, Hiragana, Katakana and CJK Unified
// Ideographs (U+3000-30FF, U+4E00-9FFF).
var japaneseRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3000, Hi: 0x30ff, Stride: 1},
		{Lo: 0x4e00, Hi: 0x9fff, Stride: 1},
	},
}

var cjkPunctuation = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3000, Hi: 0x303f, Stride: 1},
		{Lo: 0xff00, Hi: 0xffef, Stride: 1},
	},
}

// Built-in profiles. The filter is a heuristic tuned for Japanese source audio
// and drops any untimed Latin-script text.
var (
	ProfileJapanese = ScriptProfile{ID: "japanese", Name: "Japonés (CJK + kana)", Ranges: []*unicode.RangeTable{japaneseRanges}}
	ProfileChinese  = ScriptProfile{ID: "chinese", Name: "Chino (Han)", Ranges: []*unicode.RangeTable{unicode.Han, cjkPunctuation}}
	ProfileKorean   = ScriptProfile{ID: "korean", Name: "Coreano (Hangul)", Ranges: []*unicode.RangeTable{unicode.Hangul, cjkPunctuation}}
	ProfileNone     = ScriptProfile{ID: "none", Name: "Solo líneas con marca de tiempo"}

	DefaultProfile = ProfileJapanese
)

var profiles = []ScriptProfile{ProfileJapanese, ProfileChinese, ProfileKorean, ProfileNone}

// LookupProfile returns the profile with the given id, or DefaultProfile.
func LookupProfile(id string) ScriptProfile {
	for _, p := range profiles {
		if p.ID == id {
			return p
		}
	}
	return DefaultProfile
}

// Profiles lists the built-in profiles for the UI.
func Profiles() []domain.TranscriptProfile {
	out := make([]domain.TranscriptProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, domain.TranscriptProfile{
			ID:      p.ID,
			Name:    p.Name,
			Default: p.ID == DefaultProfile.ID,
		})
	}
	return out
}

// ExtractTranscript keeps the text of timestamped segments and untimed lines
// in the profile's scripts, joined with newlines. Everything else is dropped.
func ExtractTranscript(raw string, profile ScriptProfile) string {
	lines := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if m := segmentPattern.FindStringSubmatch(line); m != nil {
			kept = append(kept, strings.TrimSpace(m[1]))
			continue
		}
		if profile.Keeps(line) {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	return strings.Join(kept, "\n")
}
