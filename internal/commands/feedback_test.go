package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/types"
)

func TestParseFeedbackAction(t *testing.T) {
	tests := []struct {
		name       string
		actionID   string
		wantType   types.FeedbackType
		wantTS     string
		wantOK     bool
	}{
		{"helpful", "feedback_helpful_1700000000.001", types.FeedbackHelpful, "1700000000.001", true},
		{"outdated", "feedback_outdated_1700000000.002", types.FeedbackOutdated, "1700000000.002", true},
		{"incorrect", "feedback_incorrect_abc", types.FeedbackIncorrect, "abc", true},
		{"confusing", "feedback_confusing_abc-def", types.FeedbackConfusing, "abc-def", true},
		{"unrecognized type", "feedback_annoyed_abc", "", "", false},
		{"missing ts", "feedback_helpful_", "", "", false},
		{"not a feedback action", "acknowledge_abc", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedbackType, ts, ok := ParseFeedbackAction(tt.actionID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantType, feedbackType)
			assert.Equal(t, tt.wantTS, ts)
		})
	}
}

func TestFeedbackModalSchemaKnownTypes(t *testing.T) {
	for _, ft := range []types.FeedbackType{types.FeedbackIncorrect, types.FeedbackOutdated, types.FeedbackConfusing} {
		schema, err := FeedbackModalSchema(ft)
		require.NoError(t, err)
		assert.NotEmpty(t, schema.Title)
		assert.NotEmpty(t, schema.Fields)
	}
}

func TestFeedbackModalSchemaHelpfulErrors(t *testing.T) {
	_, err := FeedbackModalSchema(types.FeedbackHelpful)
	assert.Error(t, err)
}

func TestHandleFeedbackActionHelpfulSubmitsDirectly(t *testing.T) {
	chat := &fakeChat{}
	analytics := newFakeAnalytics()
	analytics.responses["T1"] = &types.BotResponse{ResponseTS: "T1", ChunkIDs: []string{}}
	d := &Dispatcher{prefix: "/", chat: chat, analytics: analytics}

	err := d.HandleFeedbackAction(context.Background(), "feedback_helpful_T1", "trigger-1", "U1", "C1", "thread-1", "how do I deploy")
	require.NoError(t, err)

	require.Len(t, chat.ephemerals, 1)
	assert.Contains(t, chat.ephemerals[0].text, "Thanks for the feedback")
	assert.Empty(t, chat.modals)
}

func TestHandleFeedbackActionHelpfulWithoutBotResponseErrors(t *testing.T) {
	chat := &fakeChat{}
	analytics := newFakeAnalytics()
	d := &Dispatcher{prefix: "/", chat: chat, analytics: analytics}

	err := d.HandleFeedbackAction(context.Background(), "feedback_helpful_unknown-ts", "trigger-1", "U1", "C1", "thread-1", "")
	assert.Error(t, err)
}

func TestHandleFeedbackActionNegativeOpensModal(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	err := d.HandleFeedbackAction(context.Background(), "feedback_outdated_T1", "trigger-1", "U1", "C1", "thread-1", "")
	require.NoError(t, err)

	require.Len(t, chat.modals, 1)
	assert.Equal(t, "trigger-1", chat.modals[0].triggerRef)
	assert.Equal(t, "What's outdated?", chat.modals[0].schema.Title)
	assert.Empty(t, chat.ephemerals)
}

func TestHandleFeedbackActionUnrecognizedErrors(t *testing.T) {
	d := &Dispatcher{prefix: "/"}
	err := d.HandleFeedbackAction(context.Background(), "not-a-feedback-action", "t", "u", "c", "tr", "")
	assert.Error(t, err)
}

func TestApplyModalValuesMapsPerType(t *testing.T) {
	rec := &types.FeedbackRecord{}
	applyModalValues(rec, types.FeedbackIncorrect, map[string]string{
		"what_incorrect": "the port is wrong", "correct_information": "use 8443", "evidence": "tested_myself",
	})
	assert.Equal(t, "the port is wrong", rec.Comment)
	assert.Equal(t, "use 8443", rec.SuggestedCorrection)
	assert.Equal(t, "tested_myself", rec.Evidence)

	rec = &types.FeedbackRecord{}
	applyModalValues(rec, types.FeedbackOutdated, map[string]string{
		"what_outdated": "old url", "current_information": "new url",
	})
	assert.Equal(t, "old url", rec.Comment)
	assert.Equal(t, "new url", rec.SuggestedCorrection)

	rec = &types.FeedbackRecord{}
	applyModalValues(rec, types.FeedbackConfusing, map[string]string{
		"confusion_type": "too_technical", "clarification_needed": "simplify step 3",
	})
	assert.Equal(t, "simplify step 3", rec.Comment)
	assert.Equal(t, "too_technical", rec.Evidence)
}
