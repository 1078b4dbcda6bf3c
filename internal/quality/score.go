// Package quality computes and persists chunk quality_score, the signal
// analyzer, and the scheduled recompute/decay pass (spec §4.5). The score
// model keeps the teacher's "graph-external quality layer" idea out of
// graphstore: scoring logic is pure, storage calls are confined to
// Engine's write paths.
package quality

import (
	"math"
	"time"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
)

// accessLogCap bounds the logarithmic relevance term: this module's only
// persisted access signal is ChunkData.AccessCount, a lifetime scalar (the
// data model carries no per-window access log), so the 30-day and lifetime
// terms in spec §4.5's relevance formula both read that one scalar.
const accessLogCap = 50.0

// Components is the four-part breakdown feeding the composite score
// (spec §4.5), each already normalized to [0,1].
type Components struct {
	Feedback   float64
	Behavior   float64
	Relevance  float64
	Freshness  float64
}

// Composite blends the four components per the fixed weights and scales to
// [0,100] for graph storage.
func Composite(c Components, cfg *config.QualityConfig) float64 {
	composite := cfg.FeedbackWeight*c.Feedback +
		cfg.BehaviorWeight*c.Behavior +
		cfg.RelevanceWeight*c.Relevance +
		cfg.FreshnessWeight*c.Freshness
	return types.ClampScore(composite * 100)
}

// FeedbackComponent is a Laplace-smoothed positive ratio over helpful vs
// {outdated, incorrect, confusing} (spec §4.5): add-one smoothing pulls a
// small or empty sample toward 0.5, satisfying "with <5 items, smoothed
// toward 0.5" without a separate branch.
func FeedbackComponent(records []*types.FeedbackRecord) float64 {
	positive, total := 0, 0
	for _, r := range records {
		total++
		if r.FeedbackType == types.FeedbackHelpful {
			positive++
		}
	}
	return (float64(positive) + 1) / (float64(total) + 2)
}

// BehaviorComponent averages recent signal values (mapped from [-1,1] to
// [0,1]), blended toward 0.5 when fewer than 3 signals are present.
func BehaviorComponent(signals []*types.BehavioralSignal) float64 {
	n := len(signals)
	if n == 0 {
		return 0.5
	}
	sum := 0.0
	for _, s := range signals {
		sum += (s.SignalValue + 1) / 2
	}
	mean := sum / float64(n)
	if n >= 3 {
		return mean
	}
	return (sum + 0.5*float64(3-n)) / 3
}

// RelevanceComponent is a logarithmic function of access counts, saturating
// near 1.0 (spec §4.5).
func RelevanceComponent(access30, accessLifetime int64) float64 {
	rel := (math.Log1p(float64(access30)) + math.Log1p(float64(accessLifetime))) /
		(2 * math.Log1p(accessLogCap))
	if rel > 1 {
		return 1
	}
	if rel < 0 {
		return 0
	}
	return rel
}

// FreshnessComponent is the fixed step function over source age (spec §4.5).
func FreshnessComponent(sourceUpdatedAt time.Time, now time.Time) float64 {
	age := now.Sub(sourceUpdatedAt)
	switch {
	case age < 30*24*time.Hour:
		return 1.0
	case age < 90*24*time.Hour:
		return 0.9
	case age < 180*24*time.Hour:
		return 0.75
	case age < 365*24*time.Hour:
		return 0.6
	case age < 730*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

// accessModifier buckets the 30-day access tier for the additive decay term
// (spec §4.5 decay): 50+, 20-49, 5-19, 1-4, 0.
func accessModifier(access30 int64) float64 {
	switch {
	case access30 >= 50:
		return 1.5
	case access30 >= 20:
		return 1.0
	case access30 >= 5:
		return 0.75
	case access30 >= 1:
		return 0.5
	default:
		return 0.25
	}
}

// DecayPoints returns the per-invocation additive decay in points
// (spec §4.5: "2/30 * accessModifier points per day").
func DecayPoints(access30 int64, days float64) float64 {
	return (2.0 / 30.0) * accessModifier(access30) * days
}

// FeedbackDelta is the immediate score delta applied on an explicit
// feedback event (spec §4.5 "Write paths"), configurable via
// QualityConfig.ImmediateDeltas with the spec's documented defaults as a
// fallback.
func FeedbackDelta(cfg *config.QualityConfig, t types.FeedbackType) float64 {
	if cfg != nil && cfg.ImmediateDeltas != nil {
		if d, ok := cfg.ImmediateDeltas[string(t)]; ok {
			return d
		}
	}
	switch t {
	case types.FeedbackHelpful:
		return 5
	case types.FeedbackOutdated:
		return -20
	case types.FeedbackIncorrect:
		return -25
	case types.FeedbackConfusing:
		return -10
	default:
		return 0
	}
}
