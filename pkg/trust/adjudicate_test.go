package trust

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	response string
	err      error
	prompts  []string
}

func (c *fakeClassifier) Classify(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func TestAdjudicate_FakeVerdict(t *testing.T) {
	c := &fakeClassifier{response: `{"label":"fake","confidence":0.9,"reason":"reads like an ad"}`}
	v := Adjudicate(context.Background(), c, "BUY NOW best ever")
	require.NotNil(t, v)
	assert.InDelta(t, 0.9, v.FakeProb, 0.0001)
	assert.Equal(t, "reads like an ad", v.Reason)
	require.Len(t, c.prompts, 1)
	assert.True(t, strings.Contains(c.prompts[0], "BUY NOW best ever"))
}

func TestAdjudicate_RealVerdictInverts(t *testing.T) {
	c := &fakeClassifier{response: `{"label":"real","confidence":0.8}`}
	v := Adjudicate(context.Background(), c, "works fine")
	require.NotNil(t, v)
	assert.InDelta(t, 0.2, v.FakeProb, 0.0001)
}

func TestAdjudicate_JSONEmbeddedInProse(t *testing.T) {
	c := &fakeClassifier{response: "Sure, here is my assessment:\n```json\n{\"label\":\"fake\",\"confidence\":0.7,\"reason\":\"promo\"}\n```\nHope that helps."}
	v := Adjudicate(context.Background(), c, "x")
	require.NotNil(t, v)
	assert.InDelta(t, 0.7, v.FakeProb, 0.0001)
}

func TestAdjudicate_MissingConfidenceDefaults(t *testing.T) {
	c := &fakeClassifier{response: `{"label":"fake","reason":"no score given"}`}
	v := Adjudicate(context.Background(), c, "x")
	require.NotNil(t, v)
	assert.InDelta(t, 0.5, v.FakeProb, 0.0001)
}

func TestAdjudicate_NilClassifier(t *testing.T) {
	assert.Nil(t, Adjudicate(context.Background(), nil, "x"))
}

func TestAdjudicate_OracleError(t *testing.T) {
	c := &fakeClassifier{err: errors.New("timeout")}
	assert.Nil(t, Adjudicate(context.Background(), c, "x"))
}

func TestAdjudicate_UnparseableResponses(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot determine that.",
		`{"label": fake}`,
	} {
		c := &fakeClassifier{response: raw}
		assert.Nil(t, Adjudicate(context.Background(), c, "x"), "raw=%q", raw)
	}
}

func TestParseVerdict_ConfidenceClamped(t *testing.T) {
	v := parseVerdict(`{"label":"fake","confidence":3.5}`)
	require.NotNil(t, v)
	assert.Equal(t, 1.0, v.FakeProb)
}
