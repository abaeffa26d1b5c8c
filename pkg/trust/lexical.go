package trust

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	shortTextChars  = 20
	shortTextScore  = 0.25
	exclaimRunScore = 0.12
	exclaimRunCap   = 0.20
	capsWordScore   = 0.03
	capsWordCap     = 0.12
	promoScore      = 0.35
	urlScore        = 0.20
)

// promoKeywords are matched as case-insensitive substrings and compound:
// a review hitting two entries earns 0.70 before the final clamp.
var promoKeywords = []string{
	"must buy", "best ever", "buy now", "100% recommended",
	"paid review", "sponsored", "free product", "amazing product",
	"highly recommend", "five stars", "check seller",
}

var (
	exclaimRunRegEx = regexp.MustCompile(`!+`)
	urlRegEx        = regexp.MustCompile(`(http|www\.)`)
)

// ScoreText computes a lexical suspicion score in [0,1] for a single
// review text. Pure and total: malformed or empty input scores 0.
// Each surface signal contributes additively so a score can be audited
// signal by signal.
func ScoreText(text string) float64 {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0
	}

	score := 0.0

	if utf8.RuneCountInString(t) < shortTextChars {
		score += shortTextScore
	}

	runs := len(exclaimRunRegEx.FindAllString(t, -1))
	score += min(exclaimRunCap, float64(runs)*exclaimRunScore)

	caps := 0
	for _, w := range strings.Fields(t) {
		if isAllCaps(w) {
			caps++
		}
	}
	score += min(capsWordCap, float64(caps)*capsWordScore)

	low := strings.ToLower(t)
	for _, kw := range promoKeywords {
		if strings.Contains(low, kw) {
			score += promoScore
		}
	}

	if urlRegEx.MatchString(t) {
		score += urlScore
	}

	return clamp01(score)
}

// isAllCaps reports whether the word has at least one letter, no
// lowercase letters, and more than one rune.
func isAllCaps(w string) bool {
	if utf8.RuneCountInString(w) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
