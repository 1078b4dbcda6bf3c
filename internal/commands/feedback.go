package commands

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// feedbackActionPattern matches spec §6's feedback action id grammar:
// `feedback_(helpful|outdated|incorrect|confusing)_<response_ts>`.
var feedbackActionPattern = regexp.MustCompile(`^feedback_(helpful|outdated|incorrect|confusing)_(.+)$`)

// ParseFeedbackAction splits a button action id into its feedback type and
// response timestamp, reporting ok=false for anything that doesn't match
// the documented grammar.
func ParseFeedbackAction(actionID string) (feedbackType types.FeedbackType, responseTS string, ok bool) {
	m := feedbackActionPattern.FindStringSubmatch(actionID)
	if m == nil {
		return "", "", false
	}
	return types.FeedbackType(m[1]), m[2], true
}

// createDocModalSchema is the `<prefix>create-doc` modal (spec §6: "create
// a full document with area/type/classification"). The spec doesn't
// enumerate this modal's fields the way it does for the three feedback
// modals, so title/content are added as the minimum a full document needs.
func createDocModalSchema() interfaces.ModalSchema {
	return interfaces.ModalSchema{
		Title: "Create document",
		Fields: []interfaces.ModalField{
			{Key: "title", Label: "Title", Required: true},
			{Key: "content", Label: "Content", Required: true},
			{Key: "area", Label: "Area / space", Required: true},
			{Key: "doc_type", Label: "Document type", Required: true,
				Options: []string{"policy", "how-to", "reference", "faq"}},
			{Key: "classification", Label: "Classification", Required: true,
				Options: []string{"public", "internal", "confidential"}},
		},
	}
}

// FeedbackModalSchema returns the modal definition for one of the three
// feedback types that require a modal (spec §6 "Modal schemas"). Calling
// it for "helpful" is a caller error since helpful never opens a modal
// (spec §4.7, §8 "Modal dispatch").
func FeedbackModalSchema(feedbackType types.FeedbackType) (interfaces.ModalSchema, error) {
	switch feedbackType {
	case types.FeedbackIncorrect:
		return interfaces.ModalSchema{
			Title: "What's incorrect?",
			Fields: []interfaces.ModalField{
				{Key: "what_incorrect", Label: "What's incorrect?", Required: true},
				{Key: "correct_information", Label: "Correct information"},
				{Key: "evidence", Label: "Evidence", Required: true,
					Options: []string{"official_docs", "tested_myself", "colleague_told_me", "other"}},
			},
		}, nil
	case types.FeedbackOutdated:
		return interfaces.ModalSchema{
			Title: "What's outdated?",
			Fields: []interfaces.ModalField{
				{Key: "what_outdated", Label: "What's outdated?", Required: true},
				{Key: "current_information", Label: "Current information"},
				{Key: "when_changed", Label: "When did this change?"},
			},
		}, nil
	case types.FeedbackConfusing:
		return interfaces.ModalSchema{
			Title: "What's confusing?",
			Fields: []interfaces.ModalField{
				{Key: "confusion_type", Label: "Confusion type", Required: true,
					Options: []string{"unclear", "too_technical", "missing_context", "contradictory", "other"}},
				{Key: "clarification_needed", Label: "Clarification needed"},
			},
		}, nil
	default:
		return interfaces.ModalSchema{}, fmt.Errorf("feedback type %q does not open a modal", feedbackType)
	}
}

// HandleFeedbackAction implements the feedback button click branch (spec
// §4.7): "helpful" submits directly; the other three open the matching
// modal, recorded on submit via HandleFeedbackModalSubmit.
func (d *Dispatcher) HandleFeedbackAction(ctx context.Context, actionID, triggerRef, userID, channelID, threadRef, queryContext string) error {
	feedbackType, responseTS, ok := ParseFeedbackAction(actionID)
	if !ok {
		return fmt.Errorf("unrecognized feedback action id %q", actionID)
	}

	if feedbackType == types.FeedbackHelpful {
		if err := d.recordFeedbackForResponse(ctx, responseTS, userID, threadRef, queryContext, feedbackType, nil); err != nil {
			return err
		}
		return d.chat.PostEphemeral(ctx, channelID, userID, "Thanks for the feedback!")
	}

	schema, err := FeedbackModalSchema(feedbackType)
	if err != nil {
		return err
	}
	return d.chat.OpenModal(ctx, triggerRef, schema)
}

// HandleFeedbackModalSubmit persists the modal's submitted fields as one
// FeedbackRecord per chunk the rated answer cited and hands each to the
// orchestrator, which applies the immediate delta and (for negative types)
// escalates (spec §4.7, §4.8). responseTS identifies the BotResponse the
// modal's "feedback_<type>_<response_ts>" action id pointed at, threaded
// through the modal as private metadata.
func (d *Dispatcher) HandleFeedbackModalSubmit(
	ctx context.Context,
	feedbackType types.FeedbackType,
	responseTS, userID, channelID, threadRef, queryContext string,
	values map[string]string,
) error {
	if err := d.recordFeedbackForResponse(ctx, responseTS, userID, threadRef, queryContext, feedbackType, values); err != nil {
		return err
	}
	return d.chat.PostEphemeral(ctx, channelID, userID, "Thanks — we've logged this.")
}

// recordFeedbackForResponse looks up the BotResponse behind responseTS and
// applies one FeedbackRecord per cited chunk_id (spec §8 invariant: "For
// any answer emitted, the BotResponse row exists with matching chunk_ids
// before any feedback button can be processed").
func (d *Dispatcher) recordFeedbackForResponse(
	ctx context.Context,
	responseTS, userID, threadRef, queryContext string,
	feedbackType types.FeedbackType,
	values map[string]string,
) error {
	resp, found, err := d.analytics.GetBotResponse(ctx, responseTS)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no bot response found for %q", responseTS)
	}

	for _, chunkID := range resp.ChunkIDs {
		rec := &types.FeedbackRecord{
			ChunkID: chunkID, UserID: userID, FeedbackType: feedbackType,
			ThreadRef: threadRef, MessageTS: responseTS, QueryContext: queryContext,
			CreatedAt: time.Now(),
		}
		applyModalValues(rec, feedbackType, values)
		if err := d.orch.HandleFeedbackClick(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func applyModalValues(rec *types.FeedbackRecord, feedbackType types.FeedbackType, values map[string]string) {
	switch feedbackType {
	case types.FeedbackIncorrect:
		rec.Comment = values["what_incorrect"]
		rec.SuggestedCorrection = values["correct_information"]
		rec.Evidence = values["evidence"]
	case types.FeedbackOutdated:
		rec.Comment = values["what_outdated"]
		rec.SuggestedCorrection = values["current_information"]
	case types.FeedbackConfusing:
		rec.Comment = values["clarification_needed"]
		rec.Evidence = values["confusion_type"]
	}
}
