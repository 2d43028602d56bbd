package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/circulab/marketplace-go/internal/apitest"
	"github.com/circulab/marketplace-go/internal/model"
)

// testClock is a manually advanced clock injected into the assistant view.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSendMessageAppendsOptimistically(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, time.Hour)
	defer view.Close()

	require.NoError(t, view.SendMessage(context.Background(), "c1", "Bonjour"))

	v, ok := deps.Cache.Get(KeyMessages("c1"))
	require.True(t, ok)
	msgs, _ := v.([]model.AssistantMessage)
	require.Len(t, msgs, 1)
	require.Equal(t, model.RoleUser, msgs[0].Role)
	require.Equal(t, model.MessagePending, msgs[0].Status)
	require.Equal(t, "Bonjour", msgs[0].Content[0].Text)
	require.NotEmpty(t, msgs[0].ID)
}

func TestSendMessageRateLimitStartsCountdown(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, time.Hour)
	defer view.Close()

	clock := newTestClock()
	view.now = clock.Now

	srv.Fail("POST /assistant/conversations/c1/messages", apitest.Failure{
		Status:     429,
		Body:       `{"error":"rate limit exceeded","retry_after":30}`,
		RetryAfter: "60",
	})

	err := view.SendMessage(context.Background(), "c1", "Bonjour")
	require.Error(t, err)

	// The body's retry_after wins over the header.
	require.Equal(t, 30, view.CountdownRemaining())
	require.True(t, view.SendDisabled())
	require.Equal(t, StateRateLimited, view.State())
	require.Equal(t, 1, srv.Count("POST /assistant/conversations/c1/messages"))

	// While the countdown runs, sends fail fast with no network call.
	err = view.SendMessage(context.Background(), "c1", "Encore")
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, 1, srv.Count("POST /assistant/conversations/c1/messages"))

	// The optimistic message was rolled back.
	_, ok := deps.Cache.Get(KeyMessages("c1"))
	require.False(t, ok)

	clock.Advance(31 * time.Second)
	require.False(t, view.SendDisabled())
	require.Equal(t, 0, view.CountdownRemaining())
}

func TestCountdownRoundsUp(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, time.Hour)
	defer view.Close()

	clock := newTestClock()
	view.now = clock.Now

	srv.Fail("POST /assistant/conversations/c1/messages", apitest.Failure{
		Status: 429,
		Body:   `{"error":"rate limit exceeded","retry_after":30}`,
	})
	require.Error(t, view.SendMessage(context.Background(), "c1", "x"))

	clock.Advance(29*time.Second + 500*time.Millisecond)
	require.Equal(t, 1, view.CountdownRemaining())
}

func TestPollMergesAssistantReply(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, 20*time.Millisecond)
	defer view.Close()

	srv.SeedUpdates("c1", []map[string]any{
		{"id": "a-1", "role": "assistant", "content": "Voici des partenaires", "status": "completed"},
	})

	require.NoError(t, view.SendMessage(context.Background(), "c1", "Bonjour"))
	require.Equal(t, StatePolling, view.State())

	require.Eventually(t, func() bool {
		v, ok := deps.Cache.Get(KeyMessages("c1"))
		if !ok {
			return false
		}
		msgs, _ := v.([]model.AssistantMessage)
		return len(msgs) == 2
	}, 3*time.Second, 10*time.Millisecond)

	v, _ := deps.Cache.Get(KeyMessages("c1"))
	msgs, _ := v.([]model.AssistantMessage)
	require.Equal(t, model.RoleAssistant, msgs[1].Role)
	require.Equal(t, "Voici des partenaires", msgs[1].Content[0].Text)

	// The poll ends once messages arrive.
	require.Eventually(t, func() bool {
		return view.State() == StateIdle
	}, 3*time.Second, 10*time.Millisecond)
}

func TestPollStopsOnTerminalStatus(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, 20*time.Millisecond)
	defer view.Close()

	srv.SeedUpdateStatus("c1", model.MessageCompleted)

	require.NoError(t, view.SendMessage(context.Background(), "c1", "Bonjour"))
	require.Eventually(t, func() bool {
		return view.State() == StateIdle
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSelectConversationCancelsPoll(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, time.Hour)
	defer view.Close()

	require.NoError(t, view.SendMessage(context.Background(), "c1", "Bonjour"))
	require.Equal(t, StatePolling, view.State())

	view.SelectConversation("c2")
	require.Equal(t, StateIdle, view.State())
}

func TestNewConversation(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	deps, _ := newTestDeps(t, srv)
	view := NewAssistantView(deps, time.Hour)
	defer view.Close()

	conv, err := view.NewConversation(context.Background(), "Recherche verre")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	require.Equal(t, "Recherche verre", conv.Title)

	list, err := view.Conversations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, conv.ID, list[0].ID)
}
