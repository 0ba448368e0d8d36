package model

import (
	"fmt"
	"sort"
)

// FeatureImportance pairs an expanded column name with its score.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// RankImportances aligns scores with names positionally and sorts by
// descending score. Ties keep column order.
func RankImportances(names []string, scores []float64) ([]FeatureImportance, error) {
	if len(names) != len(scores) {
		return nil, fmt.Errorf("model: %d feature names for %d importances", len(names), len(scores))
	}
	out := make([]FeatureImportance, len(names))
	for i := range names {
		out[i] = FeatureImportance{Feature: names[i], Importance: scores[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out, nil
}

// TopN returns at most n leading entries.
func TopN(list []FeatureImportance, n int) []FeatureImportance {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}
