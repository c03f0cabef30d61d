package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	HistoryFileName = "history.json"
)

// Entry records the outcome of a single cache lookup
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Namespace string    `json:"namespace,omitempty"`
	MatchType string    `json:"match_type"`
	ItemCount int       `json:"item_count"`
}

// History manages the lookup log
type History struct {
	Entries []Entry `json:"entries"`
}

// GetHistoryPath returns the path to the history file
func GetHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".semcache", HistoryFileName), nil
}

// Load reads the history from disk
func Load() (*History, error) {
	historyPath, err := GetHistoryPath()
	if err != nil {
		return nil, err
	}

	// If history doesn't exist, return empty history
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		return &History{Entries: []Entry{}}, nil
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var hist History
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return &hist, nil
}

// Save writes the history to disk
func (h *History) Save() error {
	historyPath, err := GetHistoryPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(historyPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(historyPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// AddEntry adds a new entry to the history
func (h *History) AddEntry(entry Entry) {
	h.Entries = append(h.Entries, entry)
}

// NewEntry creates a new lookup log entry
func NewEntry(query, namespace, matchType string, itemCount int) Entry {
	return Entry{
		Timestamp: time.Now(),
		Query:     query,
		Namespace: namespace,
		MatchType: matchType,
		ItemCount: itemCount,
	}
}

// Stats summarizes the lookup log
type Stats struct {
	Lookups int
	Exact   int
	Similar int
	Misses  int
}

// HitRate returns the fraction of lookups that found a match
func (s Stats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Exact+s.Similar) / float64(s.Lookups)
}

// Summarize computes aggregate stats over the log, optionally restricted to
// one namespace (empty means all)
func (h *History) Summarize(namespace string) Stats {
	stats := Stats{}

	for _, entry := range h.Entries {
		if namespace != "" && entry.Namespace != namespace {
			continue
		}
		stats.Lookups++
		switch entry.MatchType {
		case "exact_match":
			stats.Exact++
		case "similar_match":
			stats.Similar++
		default:
			stats.Misses++
		}
	}

	return stats
}
