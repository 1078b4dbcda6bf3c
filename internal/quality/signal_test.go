package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beacon-labs/wikimind/internal/types"
)

func TestClassifyMessageWorkedExamples(t *testing.T) {
	assert.Equal(t, types.SignalThanks, ClassifyMessage("Thanks, that's exactly what I needed!"))
	assert.Equal(t, types.SignalFrustration, ClassifyMessage("this doesn't work"))
	assert.Equal(t, types.SignalFollowUp, ClassifyMessage("How about the staging env?"))
	assert.Equal(t, types.SignalType(""), ClassifyMessage("ok"))
}

func TestClassifyMessageFrustrationWinsOverThanks(t *testing.T) {
	got := ClassifyMessage("thanks but this still doesn't work")
	assert.Equal(t, types.SignalFrustration, got)
}

func TestClassifyReactionWorkedExamples(t *testing.T) {
	assert.Equal(t, types.SignalPositiveReaction, ClassifyReaction("thumbsup"))
	assert.Equal(t, types.SignalNegativeReaction, ClassifyReaction("thumbsdown"))
	assert.Equal(t, types.SignalPositiveReaction, ClassifyReaction("tada"))
	assert.Equal(t, types.SignalType(""), ClassifyReaction("eyes"))
}

func TestSignalValueWorkedExamples(t *testing.T) {
	assert.InDelta(t, 0.4, SignalValue(types.SignalThanks), 1e-9)
	assert.InDelta(t, -0.5, SignalValue(types.SignalFrustration), 1e-9)
	assert.InDelta(t, -0.3, SignalValue(types.SignalFollowUp), 1e-9)
	assert.InDelta(t, 0.5, SignalValue(types.SignalPositiveReaction), 1e-9)
	assert.InDelta(t, -0.5, SignalValue(types.SignalNegativeReaction), 1e-9)
}
