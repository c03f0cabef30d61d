package adjudicator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAdjudicatorInterface ensures implementations satisfy the Adjudicator interface
func TestAdjudicatorInterface(t *testing.T) {
	var _ Adjudicator = (*ClaudeAdjudicator)(nil)
	var _ Adjudicator = (*OpenAIAdjudicator)(nil)
	var _ Adjudicator = (*MockAdjudicator)(nil)
}

// MockAdjudicator for testing code that depends on the Adjudicator interface
type MockAdjudicator struct {
	ClassifyFn func(context.Context, string, []QA) (Classification, error)
}

func (m *MockAdjudicator) Classify(ctx context.Context, query string, candidates []QA) (Classification, error) {
	if m.ClassifyFn != nil {
		return m.ClassifyFn(ctx, query, candidates)
	}
	return Classification{MatchType: MatchNone}, nil
}

func TestNewAdjudicator(t *testing.T) {
	adj, err := NewAdjudicator(Config{Backend: "claude-code"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeAdjudicator{}, adj)

	adj, err = NewAdjudicator(Config{Backend: "openai", OpenAIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIAdjudicator{}, adj)

	_, err = NewAdjudicator(Config{Backend: "openai"})
	assert.Error(t, err, "openai backend requires an API key")

	_, err = NewAdjudicator(Config{Backend: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestMatchTypeValid(t *testing.T) {
	assert.True(t, MatchExact.Valid())
	assert.True(t, MatchSimilar.Valid())
	assert.True(t, MatchNone.Valid())
	assert.False(t, MatchType("").Valid())
	assert.False(t, MatchType("partial_match").Valid())
}
