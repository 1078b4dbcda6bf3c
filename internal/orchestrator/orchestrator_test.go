package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/graphstore/memory"
	"github.com/beacon-labs/wikimind/internal/quality"
	"github.com/beacon-labs/wikimind/internal/retriever"
	"github.com/beacon-labs/wikimind/internal/types"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

type fakeEngine struct {
	engineType retriever.EngineType
	results    []types.RawResult
}

func (f *fakeEngine) EngineType() retriever.EngineType { return f.engineType }
func (f *fakeEngine) Retrieve(_ context.Context, _ string, _ int, _ types.SearchFilters) ([]types.RawResult, error) {
	return f.results, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (l *fakeLLM) Generate(context.Context, string) (string, error) { return l.response, l.err }
func (l *fakeLLM) GenerateJSON(context.Context, string, any) error   { return nil }
func (l *fakeLLM) CheckHealth(context.Context) bool                 { return l.err == nil }

type fakeChat struct {
	mu       sync.Mutex
	posted   []string
	actions  []interfaces.ActionButton
	nextTS   string
	postErr  error
}

func (c *fakeChat) PostMessage(_ context.Context, _, _, text string, actions ...interfaces.ActionButton) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postErr != nil {
		return "", c.postErr
	}
	c.posted = append(c.posted, text)
	c.actions = actions
	if c.nextTS == "" {
		c.nextTS = "ts-1"
	}
	return c.nextTS, nil
}
func (c *fakeChat) PostEphemeral(context.Context, string, string, string) error { return nil }
func (c *fakeChat) OpenModal(context.Context, string, interfaces.ModalSchema) error { return nil }
func (c *fakeChat) LookupUserByEmail(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (c *fakeChat) PostDirectMessage(context.Context, string, string, []interfaces.ActionButton) error {
	return nil
}

type fakeOrchAnalytics struct {
	mu        sync.Mutex
	responses map[string]*types.BotResponse
	feedback  []*types.FeedbackRecord
	signals   []*types.BehavioralSignal
}

func newFakeOrchAnalytics() *fakeOrchAnalytics {
	return &fakeOrchAnalytics{responses: map[string]*types.BotResponse{}}
}

func (a *fakeOrchAnalytics) InsertFeedback(_ context.Context, rec *types.FeedbackRecord) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.feedback = append(a.feedback, rec)
	return true, nil
}
func (a *fakeOrchAnalytics) InsertSignal(_ context.Context, sig *types.BehavioralSignal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signals = append(a.signals, sig)
	return nil
}
func (a *fakeOrchAnalytics) InsertBotResponse(_ context.Context, resp *types.BotResponse) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[resp.ResponseTS] = resp
	return true, nil
}
func (a *fakeOrchAnalytics) GetBotResponse(_ context.Context, ts string) (*types.BotResponse, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.responses[ts]
	return r, ok, nil
}
func (a *fakeOrchAnalytics) SetHasFollowUp(_ context.Context, ts string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r, ok := a.responses[ts]; ok {
		r.HasFollowUp = true
	}
	return nil
}
func (a *fakeOrchAnalytics) FeedbackSince(context.Context, string, int64) ([]*types.FeedbackRecord, error) {
	return nil, nil
}
func (a *fakeOrchAnalytics) SignalsSince(context.Context, string, int64) ([]*types.BehavioralSignal, error) {
	return nil, nil
}
func (a *fakeOrchAnalytics) NegativeFeedbackCountInWindow(context.Context, string, int64) (int, error) {
	return 0, nil
}
func (a *fakeOrchAnalytics) UpsertCheckpoint(context.Context, *types.IndexingCheckpoint) error { return nil }
func (a *fakeOrchAnalytics) GetCheckpoint(context.Context, string) (*types.IndexingCheckpoint, bool, error) {
	return nil, false, nil
}
func (a *fakeOrchAnalytics) IndexedInSessionOrBefore(context.Context, string) (bool, error) {
	return false, nil
}
func (a *fakeOrchAnalytics) UpsertPage(context.Context, *types.Page) error { return nil }
func (a *fakeOrchAnalytics) GetPage(context.Context, string) (*types.Page, bool, error) {
	return nil, false, nil
}
func (a *fakeOrchAnalytics) InsertConflict(context.Context, *types.ContentConflict) (bool, error) {
	return true, nil
}
func (a *fakeOrchAnalytics) OpenConflictExists(context.Context, string) (bool, error) { return false, nil }
func (a *fakeOrchAnalytics) UpdateConflict(context.Context, *types.ContentConflict) error { return nil }
func (a *fakeOrchAnalytics) ListOpenConflicts(context.Context) ([]*types.ContentConflict, error) {
	return nil, nil
}
func (a *fakeOrchAnalytics) ArchiveChunkSnapshot(context.Context, *interfaces.ArchiveSnapshot) error {
	return nil
}
func (a *fakeOrchAnalytics) GetArchiveSnapshot(context.Context, string) (*interfaces.ArchiveSnapshot, bool, error) {
	return nil, false, nil
}
func (a *fakeOrchAnalytics) DeleteArchiveSnapshot(context.Context, string) error { return nil }
func (a *fakeOrchAnalytics) ListColdArchivedOlderThan(context.Context, int64) ([]*interfaces.ArchiveSnapshot, error) {
	return nil, nil
}
func (a *fakeOrchAnalytics) CacheChunkEmbedding(context.Context, string, []float32) error { return nil }
func (a *fakeOrchAnalytics) SearchEmbeddingCache(context.Context, []float32, int) ([]interfaces.EmbeddingCacheHit, error) {
	return nil, nil
}

func testOrchestratorConfig() *config.OrchestratorConfig {
	return &config.OrchestratorConfig{
		SystemPreamble: "You are a helpful assistant.", FallbackMessage: "sources found, generation failed",
		TopK: 5, DedupCapacity: 100, ThreadCacheCapacity: 50, ThreadHistoryDepth: 10,
		MaxHistoryTurns: 6, MaxHistoryChars: 500, MaxContextChars: 1000,
	}
}

func newTestOrchestrator(t *testing.T, llm interfaces.LLM, chat *fakeChat, analytics *fakeOrchAnalytics) (*Orchestrator, *memory.Store) {
	graph := memory.New()
	require.NoError(t, graph.UpsertChunk(context.Background(), &types.ChunkData{
		ChunkID: "c1", PageTitle: "Deploy Guide", Content: "deploy with the release pipeline", QualityScore: 80,
	}))

	registry := retriever.NewRegistry()
	require.NoError(t, registry.Register(&fakeEngine{engineType: retriever.EngineSemantic, results: []types.RawResult{
		{ChunkID: "c1", Content: "deploy with the release pipeline", Score: 0.9, Metadata: &types.ChunkData{
			ChunkID: "c1", PageTitle: "Deploy Guide", QualityScore: 80,
		}},
	}}))
	retr := retriever.New(graph, registry, &config.RetrieverConfig{QualityBoostWeight: 0.2})
	qualityEngine := quality.New(graph, analytics, &config.QualityConfig{
		FeedbackWeight: 0.35, BehaviorWeight: 0.25, RelevanceWeight: 0.25, FreshnessWeight: 0.15,
		ImmediateDeltas: map[string]float64{"helpful": 5, "outdated": -20, "incorrect": -25, "confusing": -10},
	})

	return New(graph, analytics, retr, qualityEngine, llm, chat, nil, testOrchestratorConfig()), graph
}

func TestAnswerQuestionHappyPath(t *testing.T) {
	chat := &fakeChat{}
	analytics := newFakeOrchAnalytics()
	o, _ := newTestOrchestrator(t, &fakeLLM{response: "Use the release pipeline."}, chat, analytics)

	state, err := o.AnswerQuestion(context.Background(), interfaces.ChatMessage{
		ClientMsgID: "m1", TS: "t1", ThreadRef: "thread-1", ChannelID: "chan-1", UserID: "u1", Text: "how do I deploy?",
	})
	require.NoError(t, err)
	assert.False(t, state.Duplicate)
	assert.Equal(t, "Use the release pipeline.", state.Answer)
	assert.NotEmpty(t, state.ResponseTS)
	assert.Len(t, chat.posted, 1)
	assert.Contains(t, chat.posted[0], "Deploy Guide")
	assert.Len(t, chat.actions, 4)

	resp, found, err := analytics.GetBotResponse(context.Background(), state.ResponseTS)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"c1"}, resp.ChunkIDs)
}

func TestAnswerQuestionDeduplicatesByClientMsgID(t *testing.T) {
	chat := &fakeChat{}
	analytics := newFakeOrchAnalytics()
	o, _ := newTestOrchestrator(t, &fakeLLM{response: "answer"}, chat, analytics)

	msg := interfaces.ChatMessage{ClientMsgID: "dup", TS: "t1", ThreadRef: "thread-1", ChannelID: "chan-1", UserID: "u1", Text: "q"}
	_, err := o.AnswerQuestion(context.Background(), msg)
	require.NoError(t, err)

	state, err := o.AnswerQuestion(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, state.Duplicate)
	assert.Len(t, chat.posted, 1, "second identical event must not re-post")
}

func TestAnswerQuestionFallsBackOnGenerationError(t *testing.T) {
	chat := &fakeChat{}
	analytics := newFakeOrchAnalytics()
	o, _ := newTestOrchestrator(t, &fakeLLM{err: errors.New("model unavailable")}, chat, analytics)

	state, err := o.AnswerQuestion(context.Background(), interfaces.ChatMessage{
		ClientMsgID: "m2", TS: "t2", ThreadRef: "thread-2", ChannelID: "chan-1", UserID: "u1", Text: "how do I deploy?",
	})
	require.NoError(t, err)
	assert.True(t, state.Fallback)
	assert.Equal(t, "sources found, generation failed", state.Answer)
}

func TestHandleFeedbackClickHelpfulAppliesImmediateDelta(t *testing.T) {
	analytics := newFakeOrchAnalytics()
	o, graph := newTestOrchestrator(t, &fakeLLM{}, &fakeChat{}, analytics)

	err := o.HandleFeedbackClick(context.Background(), &types.FeedbackRecord{
		ChunkID: "c1", UserID: "u1", FeedbackType: types.FeedbackHelpful, MessageTS: "ts-1",
	})
	require.NoError(t, err)
	require.Len(t, analytics.feedback, 1)

	chunk, found, err := graph.GetChunkByID(context.Background(), "c1")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 85, chunk.QualityScore, 1e-9, "helpful feedback applies a +5 immediate delta")
}

func TestHandleReactionRecordsSignalForKnownEmoji(t *testing.T) {
	analytics := newFakeOrchAnalytics()
	o, _ := newTestOrchestrator(t, &fakeLLM{}, &fakeChat{}, analytics)

	require.NoError(t, o.HandleReaction(context.Background(), "ts-1", "thread-1", "u1", "thumbsup", []string{"c1"}))
	require.Len(t, analytics.signals, 1)
	assert.Equal(t, types.SignalPositiveReaction, analytics.signals[0].SignalType)

	require.NoError(t, o.HandleReaction(context.Background(), "ts-1", "thread-1", "u1", "unrelated_emoji", []string{"c1"}))
	assert.Len(t, analytics.signals, 1, "unrecognized emoji must not record a signal")
}

func TestHandleThreadMessageFlipsHasFollowUp(t *testing.T) {
	analytics := newFakeOrchAnalytics()
	analytics.responses["ts-1"] = &types.BotResponse{ResponseTS: "ts-1", ChunkIDs: []string{"c1"}}
	o, _ := newTestOrchestrator(t, &fakeLLM{}, &fakeChat{}, analytics)

	require.NoError(t, o.HandleThreadMessage(context.Background(), "ts-1", "u1", "how do I roll this back?"))
	assert.True(t, analytics.responses["ts-1"].HasFollowUp)
	require.Len(t, analytics.signals, 1)
	assert.Equal(t, types.SignalFollowUp, analytics.signals[0].SignalType)
}
