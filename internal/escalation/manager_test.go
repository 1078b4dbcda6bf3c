package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

type fakeGraph struct {
	chunks map[string]*types.ChunkData
}

func newFakeGraph() *fakeGraph { return &fakeGraph{chunks: map[string]*types.ChunkData{}} }

func (g *fakeGraph) UpsertChunk(ctx context.Context, chunk *types.ChunkData) error {
	g.chunks[chunk.ChunkID] = chunk
	return nil
}
func (g *fakeGraph) GetChunkByID(ctx context.Context, chunkID string) (*types.ChunkData, bool, error) {
	c, ok := g.chunks[chunkID]
	return c, ok, nil
}
func (g *fakeGraph) UpdateMetadata(ctx context.Context, chunkID string, patch map[string]any) error {
	return nil
}
func (g *fakeGraph) UpdateQualityScore(ctx context.Context, chunkID string, newScore float64, incrementFeedbackCount bool) error {
	return nil
}
func (g *fakeGraph) SearchHybrid(ctx context.Context, query string, k int, filters types.SearchFilters) ([]types.RawResult, error) {
	return nil, nil
}
func (g *fakeGraph) BulkList(ctx context.Context, limit int, sinceEventTime *int64) ([]*types.ChunkData, error) {
	return nil, nil
}
func (g *fakeGraph) RelatedByEntity(ctx context.Context, chunkID string, limit int) ([]types.RawResult, error) {
	return nil, nil
}
func (g *fakeGraph) CheckHealth(ctx context.Context) bool { return true }

type sentDM struct {
	userID  string
	text    string
	actions []interfaces.ActionButton
}

type sentChannel struct {
	channelID string
	text      string
	actions   []interfaces.ActionButton
}

type fakeChat struct {
	usersByEmail map[string]string
	dms          []sentDM
	channelPosts []sentChannel
}

func newFakeChat() *fakeChat {
	return &fakeChat{usersByEmail: map[string]string{}}
}

func (c *fakeChat) PostMessage(ctx context.Context, channelID, threadRef, text string, actions ...interfaces.ActionButton) (string, error) {
	c.channelPosts = append(c.channelPosts, sentChannel{channelID: channelID, text: text, actions: actions})
	return "ts-" + channelID, nil
}
func (c *fakeChat) PostEphemeral(ctx context.Context, channelID, userID, text string) error { return nil }
func (c *fakeChat) OpenModal(ctx context.Context, triggerRef string, schema interfaces.ModalSchema) error {
	return nil
}
func (c *fakeChat) LookupUserByEmail(ctx context.Context, email string) (string, bool, error) {
	userID, found := c.usersByEmail[email]
	return userID, found, nil
}
func (c *fakeChat) PostDirectMessage(ctx context.Context, userID, text string, actions []interfaces.ActionButton) error {
	c.dms = append(c.dms, sentDM{userID: userID, text: text, actions: actions})
	return nil
}

func testEscalationConfig() *config.EscalationConfig {
	return &config.EscalationConfig{
		AdminChannel:          "#admin",
		AutoEscalateThreshold: 3,
		EscalateWindowHours:   24,
		DeepLinkSecret:        "test-secret",
		DeepLinkTTLHours:      168,
	}
}

func TestHandleFeedbackNotifiesOwnerWhenFound(t *testing.T) {
	graph := newFakeGraph()
	graph.chunks["c1"] = &types.ChunkData{ChunkID: "c1", PageTitle: "Deploy Guide", Owner: "owner@example.com"}
	chat := newFakeChat()
	chat.usersByEmail["owner@example.com"] = "U-OWNER"

	mgr := New(graph, chat, testEscalationConfig())

	rec := &types.FeedbackRecord{
		ChunkID: "c1", UserID: "U1", FeedbackType: types.FeedbackOutdated,
		Comment: "This is stale", ThreadRef: "T1", MessageTS: "M1", CreatedAt: time.Now(),
	}
	require.NoError(t, mgr.HandleFeedback(context.Background(), rec))

	require.Len(t, chat.dms, 1)
	assert.Equal(t, "U-OWNER", chat.dms[0].userID)
	assert.Contains(t, chat.dms[0].text, "Deploy Guide")
	assert.Contains(t, chat.dms[0].text, "This is stale")
	require.Len(t, chat.dms[0].actions, 2)
	assert.Equal(t, "View Thread", chat.dms[0].actions[0].Label)
	assert.Equal(t, "Acknowledge", chat.dms[0].actions[1].Label)
	assert.Empty(t, chat.channelPosts)
}

func TestHandleFeedbackPostsAdminWhenOwnerNotFoundOnChatPlatform(t *testing.T) {
	graph := newFakeGraph()
	graph.chunks["c1"] = &types.ChunkData{ChunkID: "c1", PageTitle: "Deploy Guide", Owner: "ghost@example.com"}
	chat := newFakeChat()

	mgr := New(graph, chat, testEscalationConfig())

	rec := &types.FeedbackRecord{
		ChunkID: "c1", UserID: "U1", FeedbackType: types.FeedbackIncorrect,
		ThreadRef: "T1", MessageTS: "M1", CreatedAt: time.Now(),
	}
	require.NoError(t, mgr.HandleFeedback(context.Background(), rec))

	require.Empty(t, chat.dms)
	require.Len(t, chat.channelPosts, 1)
	assert.Equal(t, "#admin", chat.channelPosts[0].channelID)
	assert.Contains(t, chat.channelPosts[0].text, "owner not found")
	require.Len(t, chat.channelPosts[0].actions, 2)
	assert.Equal(t, "Mark Resolved", chat.channelPosts[0].actions[1].Label)
}

func TestHandleFeedbackPostsAdminWhenNoOwnerAssigned(t *testing.T) {
	graph := newFakeGraph()
	graph.chunks["c1"] = &types.ChunkData{ChunkID: "c1", PageTitle: "Deploy Guide"}
	chat := newFakeChat()

	mgr := New(graph, chat, testEscalationConfig())

	rec := &types.FeedbackRecord{
		ChunkID: "c1", UserID: "U1", FeedbackType: types.FeedbackConfusing,
		ThreadRef: "T1", MessageTS: "M1", CreatedAt: time.Now(),
	}
	require.NoError(t, mgr.HandleFeedback(context.Background(), rec))

	require.Len(t, chat.channelPosts, 1)
	assert.Contains(t, chat.channelPosts[0].text, "no owner assigned")
}

func TestHandleFeedbackIgnoresHelpful(t *testing.T) {
	graph := newFakeGraph()
	chat := newFakeChat()
	mgr := New(graph, chat, testEscalationConfig())

	rec := &types.FeedbackRecord{ChunkID: "c1", FeedbackType: types.FeedbackHelpful, CreatedAt: time.Now()}
	require.NoError(t, mgr.HandleFeedback(context.Background(), rec))

	assert.Empty(t, chat.dms)
	assert.Empty(t, chat.channelPosts)
}

func TestAutoEscalationFiresOnceAtThresholdAndSuppressesFourthSubmission(t *testing.T) {
	graph := newFakeGraph()
	graph.chunks["c1"] = &types.ChunkData{ChunkID: "c1", PageTitle: "Deploy Guide"}
	chat := newFakeChat()
	mgr := New(graph, chat, testEscalationConfig())

	now := time.Now()
	for i := 0; i < 3; i++ {
		rec := &types.FeedbackRecord{
			ChunkID: "c1", UserID: "U1", FeedbackType: types.FeedbackOutdated,
			ThreadRef: "T1", MessageTS: "M1", CreatedAt: now.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, mgr.HandleFeedback(context.Background(), rec))
	}

	// 3 owner-notification posts (no owner assigned) plus exactly one auto-escalation alert.
	var alertCount int
	for _, p := range chat.channelPosts {
		if assert.NotNil(t, p) && containsAutoEscalation(p.text) {
			alertCount++
		}
	}
	assert.Equal(t, 1, alertCount)

	// A fourth submission within the same rolling window produces no additional alert.
	rec := &types.FeedbackRecord{
		ChunkID: "c1", UserID: "U2", FeedbackType: types.FeedbackOutdated,
		ThreadRef: "T1", MessageTS: "M2", CreatedAt: now.Add(3 * time.Hour),
	}
	require.NoError(t, mgr.HandleFeedback(context.Background(), rec))

	alertCount = 0
	for _, p := range chat.channelPosts {
		if containsAutoEscalation(p.text) {
			alertCount++
		}
	}
	assert.Equal(t, 1, alertCount)
}

func containsAutoEscalation(text string) bool {
	return len(text) >= len("Auto-escalation") && text[:len("Auto-escalation")] == "Auto-escalation"
}

func TestDeepLinkTokenRoundTrips(t *testing.T) {
	issuer := newTokenIssuer(testEscalationConfig())
	token, err := issuer.Issue(DeepLinkClaims{ChunkID: "c1", ThreadRef: "T1", Action: "acknowledge"})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "c1", claims.ChunkID)
	assert.Equal(t, "T1", claims.ThreadRef)
	assert.Equal(t, "acknowledge", claims.Action)
}

func TestDeepLinkTokenRejectsTamperedSecret(t *testing.T) {
	issuer := newTokenIssuer(testEscalationConfig())
	token, err := issuer.Issue(DeepLinkClaims{ChunkID: "c1", ThreadRef: "T1", Action: "acknowledge"})
	require.NoError(t, err)

	other := newTokenIssuer(&config.EscalationConfig{DeepLinkSecret: "other-secret", DeepLinkTTLHours: 1})
	_, err = other.Parse(token)
	assert.Error(t, err)
}
