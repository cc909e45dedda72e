// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import "github.com/pdiddy/discovery-engine/pkg/types"

// Thresholder picks an acceptance cut-off from a batch of scores.
type Thresholder interface {
	Threshold(scores []float64) float64
}

// AdaptiveThreshold lowers the bar when the best score in a batch is weak.
type AdaptiveThreshold struct{}

// Threshold returns 0.20 when the maximum score is below 0.45, 0.25 when
// it is below 0.60, and 0.35 otherwise. An empty batch yields 0.20.
func (AdaptiveThreshold) Threshold(scores []float64) float64 {
	best := 0.0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	switch {
	case best < 0.45:
		return 0.20
	case best < 0.60:
		return 0.25
	default:
		return 0.35
	}
}

// FixedThreshold ignores the batch and returns its value.
type FixedThreshold float64

// Threshold returns f.
func (f FixedThreshold) Threshold([]float64) float64 { return float64(f) }

// DefaultFixedThreshold is used in fixed mode when no value is configured.
const DefaultFixedThreshold = 0.5

// ThresholderFor maps scorer configuration to a strategy.
func ThresholderFor(cfg types.ScorerConfig) Thresholder {
	if cfg.ThresholdMode != types.ThresholdFixed {
		return AdaptiveThreshold{}
	}
	if cfg.FixedThreshold <= 0 {
		return FixedThreshold(DefaultFixedThreshold)
	}
	return FixedThreshold(cfg.FixedThreshold)
}
