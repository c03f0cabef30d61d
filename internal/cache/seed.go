package cache

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is a YAML document of question/answer pairs to load into one
// namespace, used to pre-populate a cache in bulk
type SeedFile struct {
	Namespace string     `yaml:"namespace"`
	Pairs     []SeedPair `yaml:"pairs"`
}

// SeedPair is one seeded question/answer pair with optional metadata
type SeedPair struct {
	Question string                 `yaml:"question"`
	Answer   string                 `yaml:"answer"`
	Metadata map[string]interface{} `yaml:"metadata"`
}

// LoadSeedFile parses a YAML seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if seed.Namespace == "" {
		return nil, fmt.Errorf("seed file is missing a namespace")
	}
	if len(seed.Pairs) == 0 {
		return nil, fmt.Errorf("seed file has no pairs")
	}

	return &seed, nil
}

// Import adds every pair in the seed file to the cache. It returns the
// number of pairs added; on error, pairs added before the failure remain
func (m *Manager) Import(ctx context.Context, seed *SeedFile) (int, error) {
	added := 0

	for i, pair := range seed.Pairs {
		item := Item{Question: pair.Question, Answer: pair.Answer}
		if err := m.Add(ctx, item, seed.Namespace, pair.Metadata); err != nil {
			return added, fmt.Errorf("failed to add pair %d: %w", i, err)
		}
		added++
	}

	return added, nil
}
