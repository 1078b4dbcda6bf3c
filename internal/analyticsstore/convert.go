package analyticsstore

import (
	"strings"

	"github.com/beacon-labs/wikimind/internal/types"
)

func feedbackFromRow(r feedbackRow) *types.FeedbackRecord {
	return &types.FeedbackRecord{
		ChunkID:             r.ChunkID,
		UserID:              r.UserID,
		FeedbackType:        types.FeedbackType(r.FeedbackType),
		Comment:             r.Comment,
		SuggestedCorrection: r.SuggestedCorrection,
		Evidence:            r.Evidence,
		QueryContext:        r.QueryContext,
		ThreadRef:           r.ThreadRef,
		MessageTS:           r.MessageTS,
		CreatedAt:           r.CreatedAt,
	}
}

func signalFromRow(r signalRow) *types.BehavioralSignal {
	return &types.BehavioralSignal{
		ResponseRef: r.ResponseRef,
		ThreadRef:   r.ThreadRef,
		ChunkIDs:    splitNonEmpty(r.ChunkID),
		UserID:      r.UserID,
		SignalType:  types.SignalType(r.SignalType),
		SignalValue: r.SignalValue,
		RawText:     r.RawText,
		CreatedAt:   r.CreatedAt,
	}
}

func botResponseFromRow(r botResponseRow) *types.BotResponse {
	return &types.BotResponse{
		ResponseTS:  r.ResponseTS,
		ThreadTS:    r.ThreadTS,
		ChannelID:   r.ChannelID,
		UserID:      r.UserID,
		Query:       r.Query,
		Response:    r.ResponseText,
		ChunkIDs:    splitNonEmpty(r.ChunkIDs),
		HasFollowUp: r.HasFollowUp,
		CreatedAt:   r.CreatedAt,
	}
}

func checkpointFromRow(r checkpointRow) *types.IndexingCheckpoint {
	return &types.IndexingCheckpoint{
		ChunkID:          r.ChunkID,
		SessionID:        r.SessionID,
		Status:           types.CheckpointStatus(r.Status),
		RetryCount:       r.RetryCount,
		Error:            r.Error,
		SessionStartedAt: r.SessionStartedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func pageFromRow(r pageRow) *types.Page {
	return &types.Page{
		PageID:        r.PageID,
		SpaceKey:      r.SpaceKey,
		Title:         r.Title,
		FilePath:      r.FilePath,
		VersionNumber: r.VersionNumber,
		Status:        types.PageStatus(r.Status),
		UpdatedAt:     r.UpdatedAt,
		DownloadedAt:  r.DownloadedAt,
		Labels:        splitNonEmpty(r.Labels),
	}
}

func conflictFromRow(r conflictRow) *types.ContentConflict {
	return &types.ContentConflict{
		ID:              r.ID,
		ChunkAID:        r.ChunkAID,
		ChunkBID:        r.ChunkBID,
		ConflictType:    types.ConflictType(r.ConflictType),
		Status:          types.ConflictStatus(r.Status),
		Resolution:      types.ConflictResolution(r.Resolution),
		SimilarityScore: r.SimilarityScore,
		ConfidenceScore: r.ConfidenceScore,
		AIExplanation:   r.AIExplanation,
		DetectedAt:      r.DetectedAt,
		ResolvedAt:      r.ResolvedAt,
		ResolvedBy:      r.ResolvedBy,
		DismissedBy:     r.DismissedBy,
		DismissedReason: r.DismissedReason,
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
