package knowledge

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scoring holds the hybrid search weights. The weighted sum can exceed 1.0;
// Threshold is compared against that raw sum.
type Scoring struct {
	Similarity   float64 `yaml:"similarity"`
	Keyword      float64 `yaml:"keyword"`
	Duration     float64 `yaml:"duration"`
	Recency      float64 `yaml:"recency"`
	JDSkill      float64 `yaml:"jd_skill"`
	Threshold    float64 `yaml:"threshold"`
	MaxNodes     int     `yaml:"max_nodes"`
	RecencyYears int     `yaml:"recency_years"`
	// MinDurationMonths is exclusive: a node must exceed it to earn Duration.
	MinDurationMonths int `yaml:"min_duration_months"`
}

// DefaultScoring returns the stock weights.
func DefaultScoring() Scoring {
	return Scoring{
		Similarity:        0.60,
		Keyword:           0.20,
		Duration:          0.10,
		Recency:           0.10,
		JDSkill:           0.15,
		Threshold:         0.55,
		MaxNodes:          4,
		RecencyYears:      2,
		MinDurationMonths: 12,
	}
}

// LoadScoring reads YAML weights over the defaults. Keys absent from the file
// keep their default; a missing file yields the defaults.
func LoadScoring(path string) (Scoring, error) {
	s := DefaultScoring()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultScoring(), fmt.Errorf("scoring config %s: %w", path, err)
	}
	if s.MaxNodes <= 0 {
		return DefaultScoring(), fmt.Errorf("scoring config %s: max_nodes must be positive", path)
	}
	return s, nil
}
