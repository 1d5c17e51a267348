// internal/match/match.go
//
// Fuzzy answer matching for free-text trivia answers.
// Responsibilities:
//   - Normalize submitted and canonical answers into a comparable form.
//   - IsCorrect: strict layered match (exact, keyword, alias, edit distance,
//     containment, token overlap).
//   - IsClose: looser thresholds, evaluated by callers only after IsCorrect
//     returns false.
//
// The matcher is pure and deterministic: the same two strings always yield
// the same result. No randomness, no learned model.

package match

import (
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	leadingArticle  = regexp.MustCompile(`^(the|a|an)\s+`)
	embeddedArticle = regexp.MustCompile(`\s+(the|a|an)\s+`)
	punctuation     = regexp.MustCompile(`[^\w\s']`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Normalize lowercases, trims, strips articles and punctuation (apostrophes
// kept), and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = leadingArticle.ReplaceAllString(s, "")
	s = embeddedArticle.ReplaceAllString(s, " ")
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)) over runes.
func similarity(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(maxLen)
}

// tokens splits a normalized string into words longer than 2 characters.
func tokens(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// IsCorrect reports whether userText should be accepted as the canonical
// answer. Layers are applied in order; any hit short-circuits.
func IsCorrect(userText, canonical string, keywords []string) bool {
	user := Normalize(userText)
	correct := Normalize(canonical)

	if user == correct {
		return true
	}

	for _, kw := range keywords {
		k := Normalize(kw)
		if user == k {
			return true
		}
		if (strings.Contains(user, k) || strings.Contains(k, user)) && len(k) > 3 {
			return true
		}
	}

	if Aliased(user, correct) {
		return true
	}

	if similarity(user, correct) >= 0.9 {
		return true
	}

	if strings.Contains(user, correct) || (strings.Contains(correct, user) && len(user) > 3) {
		return true
	}

	userWords := tokens(user)
	correctWords := tokens(correct)
	if len(correctWords) > 1 {
		matches := 0
		for _, cw := range correctWords {
			for _, uw := range userWords {
				if uw == cw ||
					(strings.Contains(uw, cw) && len(cw) > 3) ||
					(strings.Contains(cw, uw) && len(uw) > 3) {
					matches++
					break
				}
			}
		}
		return matches >= int(math.Ceil(float64(len(correctWords))*0.8))
	}

	return false
}

// IsClose reports whether userText is close enough to earn partial credit.
// Callers evaluate this only after IsCorrect returns false.
func IsClose(userText, canonical string, keywords []string) bool {
	user := Normalize(userText)
	correct := Normalize(canonical)

	userWords := tokens(user)
	for _, kw := range keywords {
		k := Normalize(kw)
		if similarity(user, k) >= 0.8 {
			return true
		}
		for _, uw := range userWords {
			for _, kwWord := range tokens(k) {
				if strings.Contains(uw, kwWord) || strings.Contains(kwWord, uw) {
					return true
				}
			}
		}
	}

	if Aliased(user, correct) {
		return true
	}

	if similarity(user, correct) >= 0.7 {
		return true
	}

	correctWords := tokens(correct)
	if len(correctWords) > 1 && len(userWords) > 0 {
		total := 0.0
		for _, uw := range userWords {
			for _, cw := range correctWords {
				if uw == cw {
					total += 1
				} else if s := similarity(uw, cw); s >= 0.8 {
					total += s
				}
			}
		}
		return total >= float64(len(correctWords))*0.6
	}

	if len(correctWords) == 1 && len(userWords) > 0 {
		cw := correctWords[0]
		for _, uw := range userWords {
			if strings.Contains(uw, cw) || strings.Contains(cw, uw) ||
				levenshtein.ComputeDistance(uw, cw) <= 2 {
				return true
			}
		}
	}

	return false
}
