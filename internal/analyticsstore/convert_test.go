package analyticsstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/beacon-labs/wikimind/internal/types"
)

func TestFeedbackRowRoundTrip(t *testing.T) {
	rec := &types.FeedbackRecord{
		ChunkID: "c1", UserID: "u1", FeedbackType: types.FeedbackHelpful,
		ThreadRef: "t1", MessageTS: "1234.5", CreatedAt: time.Now().Truncate(time.Second),
	}
	row := feedbackRow{
		ChunkID: rec.ChunkID, UserID: rec.UserID, FeedbackType: string(rec.FeedbackType),
		ThreadRef: rec.ThreadRef, MessageTS: rec.MessageTS, CreatedAt: rec.CreatedAt,
	}
	got := feedbackFromRow(row)
	assert.Equal(t, rec.ChunkID, got.ChunkID)
	assert.Equal(t, rec.FeedbackType, got.FeedbackType)
	assert.Equal(t, rec.IdempotencyKey(), got.IdempotencyKey())
}

func TestSignalRowSplitsChunkIDs(t *testing.T) {
	row := signalRow{ChunkID: "c1,c2,c3", SignalType: string(types.SignalFrustration)}
	got := signalFromRow(row)
	assert.Equal(t, []string{"c1", "c2", "c3"}, got.ChunkIDs)
}

func TestPageRowEmptyLabelsRoundTrip(t *testing.T) {
	row := pageRow{PageID: "p1", Labels: ""}
	got := pageFromRow(row)
	assert.Nil(t, got.Labels)
}

func TestConflictRowPreservesPairKey(t *testing.T) {
	c := &types.ContentConflict{ChunkAID: "b", ChunkBID: "a"}
	row := conflictRow{ChunkAID: c.ChunkAID, ChunkBID: c.ChunkBID, PairKey: c.PairKey()}
	assert.Equal(t, "a|b", row.PairKey)
}
