package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

type sentEphemeral struct {
	channelID, userID, text string
}

type sentModal struct {
	triggerRef string
	schema     interfaces.ModalSchema
}

type fakeChat struct {
	ephemerals []sentEphemeral
	modals     []sentModal
}

func (c *fakeChat) PostMessage(ctx context.Context, channelID, threadRef, text string, actions ...interfaces.ActionButton) (string, error) {
	return "ts", nil
}
func (c *fakeChat) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	c.ephemerals = append(c.ephemerals, sentEphemeral{channelID, userID, text})
	return nil
}
func (c *fakeChat) OpenModal(ctx context.Context, triggerRef string, schema interfaces.ModalSchema) error {
	c.modals = append(c.modals, sentModal{triggerRef, schema})
	return nil
}
func (c *fakeChat) LookupUserByEmail(ctx context.Context, email string) (string, bool, error) {
	return "", false, nil
}
func (c *fakeChat) PostDirectMessage(ctx context.Context, userID, text string, actions []interfaces.ActionButton) error {
	return nil
}

type fakeAnalytics struct {
	responses map[string]*types.BotResponse
}

func newFakeAnalytics() *fakeAnalytics { return &fakeAnalytics{responses: map[string]*types.BotResponse{}} }

func (a *fakeAnalytics) InsertFeedback(ctx context.Context, rec *types.FeedbackRecord) (bool, error) {
	return true, nil
}
func (a *fakeAnalytics) InsertSignal(ctx context.Context, sig *types.BehavioralSignal) error { return nil }
func (a *fakeAnalytics) InsertBotResponse(ctx context.Context, resp *types.BotResponse) (bool, error) {
	return true, nil
}
func (a *fakeAnalytics) GetBotResponse(ctx context.Context, responseTS string) (*types.BotResponse, bool, error) {
	r, ok := a.responses[responseTS]
	return r, ok, nil
}
func (a *fakeAnalytics) SetHasFollowUp(ctx context.Context, responseTS string) error { return nil }
func (a *fakeAnalytics) FeedbackSince(ctx context.Context, chunkID string, since int64) ([]*types.FeedbackRecord, error) {
	return nil, nil
}
func (a *fakeAnalytics) SignalsSince(ctx context.Context, chunkID string, since int64) ([]*types.BehavioralSignal, error) {
	return nil, nil
}
func (a *fakeAnalytics) NegativeFeedbackCountInWindow(ctx context.Context, chunkID string, windowStart int64) (int, error) {
	return 0, nil
}
func (a *fakeAnalytics) UpsertCheckpoint(ctx context.Context, cp *types.IndexingCheckpoint) error {
	return nil
}
func (a *fakeAnalytics) GetCheckpoint(ctx context.Context, chunkID string) (*types.IndexingCheckpoint, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) IndexedInSessionOrBefore(ctx context.Context, chunkID string) (bool, error) {
	return false, nil
}
func (a *fakeAnalytics) UpsertPage(ctx context.Context, page *types.Page) error { return nil }
func (a *fakeAnalytics) GetPage(ctx context.Context, pageID string) (*types.Page, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) InsertConflict(ctx context.Context, c *types.ContentConflict) (bool, error) {
	return true, nil
}
func (a *fakeAnalytics) OpenConflictExists(ctx context.Context, pairKey string) (bool, error) {
	return false, nil
}
func (a *fakeAnalytics) UpdateConflict(ctx context.Context, c *types.ContentConflict) error { return nil }
func (a *fakeAnalytics) ListOpenConflicts(ctx context.Context) ([]*types.ContentConflict, error) {
	return nil, nil
}
func (a *fakeAnalytics) ArchiveChunkSnapshot(context.Context, *interfaces.ArchiveSnapshot) error { return nil }
func (a *fakeAnalytics) GetArchiveSnapshot(context.Context, string) (*interfaces.ArchiveSnapshot, bool, error) {
	return nil, false, nil
}
func (a *fakeAnalytics) DeleteArchiveSnapshot(context.Context, string) error { return nil }
func (a *fakeAnalytics) ListColdArchivedOlderThan(context.Context, int64) ([]*interfaces.ArchiveSnapshot, error) {
	return nil, nil
}
func (a *fakeAnalytics) CacheChunkEmbedding(context.Context, string, []float32) error { return nil }
func (a *fakeAnalytics) SearchEmbeddingCache(context.Context, []float32, int) ([]interfaces.EmbeddingCacheHit, error) {
	return nil, nil
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		prefix     string
		wantName   string
		wantRest   string
		wantOK     bool
	}{
		{"basic command with arg", "/create-knowledge some fact here", "/", "create-knowledge", "some fact here", true},
		{"command with no rest", "/help", "/", "help", "", true},
		{"leading/trailing whitespace", "  /help create-doc  ", "/", "help", "create-doc", true},
		{"not a command", "what is the deploy process?", "/", "", "", false},
		{"bare prefix only", "/", "/", "", "", false},
		{"empty prefix never matches", "anything", "", "", "", false},
		{"custom prefix", "!!ingest-doc http://x", "!!", "ingest-doc", "http://x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, rest, ok := ParseCommand(tt.text, tt.prefix)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestDispatchNotACommandReturnsUnhandled(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", Text: "how do I deploy this?",
	})

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, chat.ephemerals)
}

func TestDispatchUnknownCommandRepliesEphemeral(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", Text: "/frobnicate",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, chat.ephemerals, 1)
	assert.Contains(t, chat.ephemerals[0].text, "Unknown command")
}

func TestDispatchHelpRendersSectionText(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", Text: "/help create-doc",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, chat.ephemerals, 1)
	assert.Contains(t, chat.ephemerals[0].text, "create-doc")
}

func TestDispatchCreateDocOpensModal(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", TS: "T1", Text: "/create-doc",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, chat.modals, 1)
	assert.Equal(t, "T1", chat.modals[0].triggerRef)
	assert.Equal(t, "Create document", chat.modals[0].schema.Title)
}

func TestDispatchCreateKnowledgeRequiresText(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", Text: "/create-knowledge",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, chat.ephemerals, 1)
	assert.Contains(t, chat.ephemerals[0].text, "Usage")
}

func TestDispatchCreateKnowledgeWithoutSchedulerReportsFailure(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat} // scheduler intentionally nil

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", Text: "/create-knowledge the vpn is at vpn.example.com",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, chat.ephemerals, 1)
	assert.Contains(t, chat.ephemerals[0].text, "Could not ingest document")
}

func TestDispatchIngestDocRequiresURL(t *testing.T) {
	chat := &fakeChat{}
	d := &Dispatcher{prefix: "/", chat: chat}

	handled, err := d.Dispatch(context.Background(), interfaces.ChatMessage{
		ChannelID: "C1", UserID: "U1", Text: "/ingest-doc   ",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	require.Len(t, chat.ephemerals, 1)
	assert.Contains(t, chat.ephemerals[0].text, "Usage")
}
