package analysis

import (
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// normalizeText lowercases s, turns every non-alphanumeric rune into a single
// space and pads the result with one space on each side. Keywords are
// normalized the same way and carry a leading space, so a keyword only hits
// at the start of a word: "light" finds "lights" and "lighting", "led" does
// not find "failed".
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

func normalizeKeyword(kw string) string {
	n := strings.TrimRight(normalizeText(kw), " ")
	if strings.TrimSpace(n) == "" {
		return ""
	}
	return n
}

// keywordSet answers "does the text contain any of these keywords" in one
// Aho-Corasick pass. The underlying matcher keeps per-search state, so
// searches are serialized.
type keywordSet struct {
	mu       sync.Mutex
	keywords []string
	matcher  *ahocorasick.Matcher
}

func newKeywordSet(words ...string) *keywordSet {
	ks := &keywordSet{}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		n := normalizeKeyword(w)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		ks.keywords = append(ks.keywords, n)
	}
	if len(ks.keywords) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(ks.keywords)
	}
	return ks
}

// matches expects text already passed through normalizeText.
func (ks *keywordSet) matches(text string) bool {
	if ks.matcher == nil || strings.TrimSpace(text) == "" {
		return false
	}
	ks.mu.Lock()
	hits := ks.matcher.Match([]byte(text))
	ks.mu.Unlock()
	return len(hits) > 0
}

// matchAny reports whether any of texts matches.
func (ks *keywordSet) matchAny(texts []string) bool {
	for _, t := range texts {
		if ks.matches(t) {
			return true
		}
	}
	return false
}
