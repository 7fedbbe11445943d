package survey

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	KeywordMatchAny = "any"
	KeywordMatchAll = "all"
)

// Matcher decides whether an inbound text activates the survey.
type Matcher interface {
	Match(text string) bool
}

// FoldText lower-cases text, strips diacritics and collapses whitespace.
// Percent-encoded input (some click-to-chat links deliver it that way) is
// decoded first.
func FoldText(text string) string {
	if strings.Contains(text, "%") {
		if decoded, err := url.QueryUnescape(text); err == nil {
			text = decoded
		}
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// TriggerMatcher is the primary matcher: exact comparison against the
// enumerated trigger phrases after folding.
type TriggerMatcher struct {
	phrases map[string]struct{}
}

func NewTriggerMatcher(phrases []string) *TriggerMatcher {
	m := &TriggerMatcher{phrases: make(map[string]struct{}, len(phrases))}
	for _, phrase := range phrases {
		if folded := FoldText(phrase); folded != "" {
			m.phrases[folded] = struct{}{}
		}
	}
	return m
}

func (m *TriggerMatcher) Match(text string) bool {
	_, ok := m.phrases[FoldText(text)]
	return ok
}

// KeywordMatcher is the secondary matcher: keyword containment on the folded
// text, requiring any or all keywords.
type KeywordMatcher struct {
	keywords   []string
	requireAll bool
}

func NewKeywordMatcher(keywords []string, mode string) *KeywordMatcher {
	m := &KeywordMatcher{requireAll: mode == KeywordMatchAll}
	for _, keyword := range keywords {
		if folded := FoldText(keyword); folded != "" {
			m.keywords = append(m.keywords, folded)
		}
	}
	return m
}

func (m *KeywordMatcher) Match(text string) bool {
	if len(m.keywords) == 0 {
		return false
	}
	folded := FoldText(text)
	for _, keyword := range m.keywords {
		found := strings.Contains(folded, keyword)
		if m.requireAll && !found {
			return false
		}
		if !m.requireAll && found {
			return true
		}
	}
	return m.requireAll
}

// ActivationMatcher tries the primary matcher, then the keyword matcher.
type ActivationMatcher struct {
	Primary   *TriggerMatcher
	Secondary *KeywordMatcher
}

func NewActivationMatcher(t Triggers) *ActivationMatcher {
	return &ActivationMatcher{
		Primary:   NewTriggerMatcher(t.Phrases),
		Secondary: NewKeywordMatcher(t.Keywords, t.KeywordMatch),
	}
}

func (m *ActivationMatcher) Match(text string) bool {
	return m.Primary.Match(text) || m.Secondary.Match(text)
}
