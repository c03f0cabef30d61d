package adjudicator

import (
	"context"
	"fmt"
)

// MatchType classifies how well a query matches the candidate set
type MatchType string

const (
	MatchExact   MatchType = "exact_match"
	MatchSimilar MatchType = "similar_match"
	MatchNone    MatchType = "no_match"
)

// Valid reports whether the match type is one of the known values
func (m MatchType) Valid() bool {
	return m == MatchExact || m == MatchSimilar || m == MatchNone
}

// QA is one candidate question/answer pair presented for classification.
// Candidates deliberately carry no identity, distance, or metadata: the
// adjudicator decides on text alone
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Classification is the adjudicator's verdict: a match type plus the
// question texts of the selected candidates, best first
type Classification struct {
	MatchType MatchType `json:"match_type"`
	Questions []string  `json:"questions"`
}

// Adjudicator decides whether a query is answered by any of the candidate
// question/answer pairs. Selections must be drawn from the candidates;
// callers are expected to drop any selection that is not
type Adjudicator interface {
	Classify(ctx context.Context, query string, candidates []QA) (Classification, error)
}

// Config holds configuration for creating an adjudicator
type Config struct {
	Backend string

	// OpenAI config
	OpenAIKey   string
	OpenAIModel string
}

// NewAdjudicator creates an adjudicator based on the config
func NewAdjudicator(cfg Config) (Adjudicator, error) {
	switch cfg.Backend {
	case "claude-code":
		return NewClaudeAdjudicator(), nil
	case "openai":
		return NewOpenAIAdjudicator(cfg.OpenAIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unknown adjudicator backend: %q", cfg.Backend)
	}
}
