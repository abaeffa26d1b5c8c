package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreText_EmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, ScoreText(""))
	assert.Equal(t, 0.0, ScoreText("   \t\n"))
}

func TestScoreText_CleanReview(t *testing.T) {
	s := ScoreText("This product works fine for daily use.")
	assert.Equal(t, 0.0, s)
}

func TestScoreText_ShortText(t *testing.T) {
	assert.InDelta(t, 0.25, ScoreText("works ok here"), 0.001)
}

func TestScoreText_ExclamationRunsCapped(t *testing.T) {
	// three runs would be 0.36 uncapped
	s := ScoreText("Wow!! So good!! Really nice!! product")
	assert.InDelta(t, 0.20, s, 0.001)
}

func TestScoreText_URLToken(t *testing.T) {
	assert.InDelta(t, 0.20, ScoreText("see deals over at www.example.com today"), 0.001)
	assert.InDelta(t, 0.20, ScoreText("found it via http://example.com yesterday"), 0.001)
}

func TestScoreText_PromoKeywordsCompound(t *testing.T) {
	assert.InDelta(t, 0.70, ScoreText("sponsored paid review"), 0.001)
}

func TestScoreText_CapsWordsCapped(t *testing.T) {
	s := ScoreText("THIS IS THE GREATEST THING I HAVE OWNED honestly")
	// 7 caps words would be 0.21 uncapped
	assert.InDelta(t, 0.12, s, 0.001)
}

func TestScoreText_PromotionalScenario(t *testing.T) {
	s := ScoreText("BEST EVER!!! MUST BUY 100% recommended")
	assert.Greater(t, s, 0.3)
	assert.LessOrEqual(t, s, 1.0)
}

func TestScoreText_AlwaysBounded(t *testing.T) {
	texts := []string{
		"", "!",
		"MUST BUY NOW!!! www.spam.example BEST EVER five stars sponsored paid review",
		"a perfectly ordinary review about a perfectly ordinary product",
		"ĞREAT ПРОДУКТ 😀",
	}
	for _, txt := range texts {
		s := ScoreText(txt)
		assert.GreaterOrEqual(t, s, 0.0, "text: %q", txt)
		assert.LessOrEqual(t, s, 1.0, "text: %q", txt)
	}
}

func TestIsAllCaps(t *testing.T) {
	assert.True(t, isAllCaps("BEST"))
	assert.True(t, isAllCaps("EVER!!!"))
	assert.False(t, isAllCaps("B"))
	assert.False(t, isAllCaps("100%"))
	assert.False(t, isAllCaps("Best"))
}
