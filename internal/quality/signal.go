package quality

import (
	"regexp"
	"strings"

	"github.com/beacon-labs/wikimind/internal/types"
)

// Ordered so frustration wins over gratitude wins over a follow-up question,
// per spec §4.5 "frustration wins over gratitude wins over question".
var (
	frustrationRE = regexp.MustCompile(`(?i)\b(doesn'?t work|not working|still (broken|failing)|this is wrong|that'?s (not right|incorrect)|confus(ed|ing)|frustrat(ed|ing))\b`)
	thanksRE      = regexp.MustCompile(`(?i)\b(thanks|thank you|exactly what i needed|perfect|that (helped|worked))\b`)
	followUpRE    = regexp.MustCompile(`(?i)(\?\s*$|^\s*(how|what|where|when|why|can|could|does|is there)\b)`)
)

// ClassifyMessage implements the thread-message signal analyzer (spec §4.5):
// a pure, stateless function over raw text. Returns "" when no rule fires.
func ClassifyMessage(text string) types.SignalType {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	switch {
	case frustrationRE.MatchString(trimmed):
		return types.SignalFrustration
	case thanksRE.MatchString(trimmed):
		return types.SignalThanks
	case followUpRE.MatchString(trimmed):
		return types.SignalFollowUp
	default:
		return ""
	}
}

// signalValues are the fixed signal_value mapping worked through in spec §8's
// examples: thanks +0.4, frustration -0.5, follow_up -0.3.
var signalValues = map[types.SignalType]float64{
	types.SignalThanks:           0.4,
	types.SignalFrustration:      -0.5,
	types.SignalFollowUp:         -0.3,
	types.SignalPositiveReaction: 0.5,
	types.SignalNegativeReaction: -0.5,
}

// SignalValue returns the fixed signal_value for a classified signal type.
func SignalValue(t types.SignalType) float64 {
	return signalValues[t]
}

var (
	positiveReactions = map[string]bool{"thumbsup": true, "+1": true, "tada": true, "heart": true, "raised_hands": true}
	negativeReactions = map[string]bool{"thumbsdown": true, "-1": true, "confused": true, "cry": true}
)

// ClassifyReaction implements the emoji-reaction signal analyzer (spec
// §4.5): fixed allow-lists, no negation or combination logic.
func ClassifyReaction(emoji string) types.SignalType {
	name := strings.Trim(strings.ToLower(emoji), ":")
	switch {
	case positiveReactions[name]:
		return types.SignalPositiveReaction
	case negativeReactions[name]:
		return types.SignalNegativeReaction
	default:
		return ""
	}
}
