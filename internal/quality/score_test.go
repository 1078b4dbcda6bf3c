package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
)

func TestFeedbackComponentSmoothsTowardHalfWithNoRecords(t *testing.T) {
	assert.InDelta(t, 0.5, FeedbackComponent(nil), 1e-9)
}

func TestFeedbackComponentLaplaceSmoothedRatio(t *testing.T) {
	records := []*types.FeedbackRecord{
		{FeedbackType: types.FeedbackHelpful},
		{FeedbackType: types.FeedbackHelpful},
		{FeedbackType: types.FeedbackOutdated},
	}
	// (2+1)/(3+2) = 0.6
	assert.InDelta(t, 0.6, FeedbackComponent(records), 1e-9)
}

func TestBehaviorComponentDefaultsToHalfWithNoSignals(t *testing.T) {
	assert.InDelta(t, 0.5, BehaviorComponent(nil), 1e-9)
}

func TestBehaviorComponentBlendsSmallSamples(t *testing.T) {
	signals := []*types.BehavioralSignal{{SignalValue: 1.0}}
	// mapped value = 1.0, blended: (1.0 + 0.5*2)/3 = 0.6667
	assert.InDelta(t, 0.6667, BehaviorComponent(signals), 1e-3)
}

func TestFreshnessComponentStepFunction(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.0, FreshnessComponent(now.AddDate(0, 0, -10), now), 1e-9)
	assert.InDelta(t, 0.9, FreshnessComponent(now.AddDate(0, 0, -60), now), 1e-9)
	assert.InDelta(t, 0.75, FreshnessComponent(now.AddDate(0, 0, -120), now), 1e-9)
	assert.InDelta(t, 0.6, FreshnessComponent(now.AddDate(0, 0, -300), now), 1e-9)
	assert.InDelta(t, 0.4, FreshnessComponent(now.AddDate(0, 0, -500), now), 1e-9)
	assert.InDelta(t, 0.2, FreshnessComponent(now.AddDate(0, 0, -1000), now), 1e-9)
}

func TestCompositeWeightsSumToSpecDefaults(t *testing.T) {
	cfg := &config.QualityConfig{FeedbackWeight: 0.35, BehaviorWeight: 0.25, RelevanceWeight: 0.25, FreshnessWeight: 0.15}
	all1 := Composite(Components{1, 1, 1, 1}, cfg)
	assert.InDelta(t, 100.0, all1, 1e-9)
	all0 := Composite(Components{0, 0, 0, 0}, cfg)
	assert.InDelta(t, 0.0, all0, 1e-9)
}

func TestFeedbackDeltaDefaults(t *testing.T) {
	cfg := &config.QualityConfig{}
	assert.Equal(t, 5.0, FeedbackDelta(cfg, types.FeedbackHelpful))
	assert.Equal(t, -20.0, FeedbackDelta(cfg, types.FeedbackOutdated))
	assert.Equal(t, -25.0, FeedbackDelta(cfg, types.FeedbackIncorrect))
	assert.Equal(t, -10.0, FeedbackDelta(cfg, types.FeedbackConfusing))
}

func TestDecayPointsScalesWithAccessTier(t *testing.T) {
	assert.InDelta(t, (2.0/30.0)*0.25, DecayPoints(0, 1), 1e-9)
	assert.InDelta(t, (2.0/30.0)*1.5, DecayPoints(100, 1), 1e-9)
}
