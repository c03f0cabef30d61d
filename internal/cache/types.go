package cache

import "github.com/iishyfishyy/semcache/internal/cache/adjudicator"

// MatchType re-exports the adjudicator's classification values
type MatchType = adjudicator.MatchType

const (
	MatchExact   = adjudicator.MatchExact
	MatchSimilar = adjudicator.MatchSimilar
	MatchNone    = adjudicator.MatchNone
)

// Item is a question/answer pair to cache
type Item struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ResolvedItem is a matched cache entry with its original stored metadata
type ResolvedItem struct {
	Question string                 `json:"question"`
	Answer   string                 `json:"answer"`
	Metadata map[string]interface{} `json:"meta"`
}

// MatchResult is the outcome of a cache lookup. Items is empty exactly when
// MatchType is no_match; every item originates from the candidate set
// retrieved for the same lookup
type MatchResult struct {
	MatchType MatchType      `json:"match_type"`
	Items     []ResolvedItem `json:"items"`
}

// Hit reports whether the lookup found anything usable
func (r MatchResult) Hit() bool {
	return r.MatchType != MatchNone && len(r.Items) > 0
}
