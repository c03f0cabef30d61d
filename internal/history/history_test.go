package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	hist := &History{Entries: []Entry{
		{Timestamp: time.Now(), Query: "q1", Namespace: "geo", MatchType: "exact_match", ItemCount: 1},
		{Timestamp: time.Now(), Query: "q2", Namespace: "geo", MatchType: "similar_match", ItemCount: 2},
		{Timestamp: time.Now(), Query: "q3", Namespace: "geo", MatchType: "no_match", ItemCount: 0},
		{Timestamp: time.Now(), Query: "q4", Namespace: "hr", MatchType: "exact_match", ItemCount: 1},
	}}

	stats := hist.Summarize("")
	assert.Equal(t, 4, stats.Lookups)
	assert.Equal(t, 2, stats.Exact)
	assert.Equal(t, 1, stats.Similar)
	assert.Equal(t, 1, stats.Misses)

	geo := hist.Summarize("geo")
	assert.Equal(t, 3, geo.Lookups)
	assert.Equal(t, 1, geo.Exact)

	none := hist.Summarize("missing")
	assert.Equal(t, 0, none.Lookups)
}

func TestHitRate(t *testing.T) {
	assert.Equal(t, 0.0, Stats{}.HitRate())
	assert.Equal(t, 0.75, Stats{Lookups: 4, Exact: 2, Similar: 1, Misses: 1}.HitRate())
	assert.Equal(t, 0.0, Stats{Lookups: 3, Misses: 3}.HitRate())
}

func TestAddEntry(t *testing.T) {
	hist := &History{Entries: []Entry{}}
	hist.AddEntry(NewEntry("capital of France", "geo", "exact_match", 1))

	assert.Len(t, hist.Entries, 1)
	assert.Equal(t, "capital of France", hist.Entries[0].Query)
	assert.Equal(t, "geo", hist.Entries[0].Namespace)
	assert.False(t, hist.Entries[0].Timestamp.IsZero())
}
