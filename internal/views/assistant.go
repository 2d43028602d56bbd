package views

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/circulab/marketplace-go/internal/api"
	"github.com/circulab/marketplace-go/internal/model"
	"github.com/circulab/marketplace-go/internal/mutation"
	"github.com/circulab/marketplace-go/internal/normalize"
	"github.com/circulab/marketplace-go/pkg/metrics"
)

// ErrRateLimited is returned by SendMessage while the rate-limit countdown
// has not elapsed.
var ErrRateLimited = errors.New("assistant: sending disabled until rate limit elapses")

// PollState describes the assistant update loop.
type PollState string

const (
	StateIdle        PollState = "idle"
	StatePolling     PollState = "polling"
	StateRateLimited PollState = "rate-limited"
)

// Assistant responses are computed asynchronously server-side, so after a
// send the view polls the updates endpoint until new messages arrive or the
// message status turns terminal. A 429 anywhere in that flow starts a
// client-side countdown that disables sending until it elapses.
type AssistantView struct {
	deps         *Deps
	pollInterval time.Duration
	now          func() time.Time

	mu           sync.Mutex
	pollCancel   context.CancelFunc
	pollGen      int
	activeConv   string
	limitedUntil time.Time
}

// NewAssistantView creates the assistant view. pollInterval <= 0 defaults to
// 2 seconds.
func NewAssistantView(deps *Deps, pollInterval time.Duration) *AssistantView {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &AssistantView{
		deps:         deps,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

// Conversations returns the assistant conversation list.
func (v *AssistantView) Conversations(ctx context.Context) ([]model.Conversation, error) {
	return query(ctx, v.deps, KeyConversations, "/assistant/conversations", normalize.Conversations)
}

// Messages returns the message history of one conversation.
func (v *AssistantView) Messages(ctx context.Context, conversationID string) ([]model.AssistantMessage, error) {
	return query(ctx, v.deps, KeyMessages(conversationID),
		"/assistant/conversations/"+url.PathEscape(conversationID)+"/messages",
		normalize.AssistantMessages)
}

// NewConversation creates a conversation. The list query is invalidated so
// the new conversation appears on the next read.
func (v *AssistantView) NewConversation(ctx context.Context, title string) (model.Conversation, error) {
	raw, err := v.deps.API.Do(ctx, http.MethodPost, "/assistant/conversations",
		map[string]string{"title": title})
	if err != nil {
		return model.Conversation{}, v.deps.handleAuthError(err)
	}
	v.deps.Cache.Invalidate(KeyConversations)
	return normalize.Conversation(api.DecodeJSON(raw)), nil
}

// SendMessage appends the user message optimistically, sends it, and starts
// the update poll. While a rate-limit countdown is active it fails
// immediately with ErrRateLimited and no network call.
func (v *AssistantView) SendMessage(ctx context.Context, conversationID, text string) error {
	if v.SendDisabled() {
		return ErrRateLimited
	}

	sentAt := v.now()
	send := &mutation.Optimistic[string, []model.AssistantMessage]{
		Cache: v.deps.Cache,
		Key:   KeyMessages(conversationID),
		Predict: func(current []model.AssistantMessage, content string) []model.AssistantMessage {
			out := make([]model.AssistantMessage, len(current), len(current)+1)
			copy(out, current)
			return append(out, model.AssistantMessage{
				ID:        uuid.Must(uuid.NewV7()).String(),
				Role:      model.RoleUser,
				Status:    model.MessagePending,
				Content:   []model.Segment{{Type: model.SegmentText, Text: content}},
				CreatedAt: &sentAt,
			})
		},
		Call: func(cctx context.Context, content string) ([]byte, error) {
			return v.deps.API.Do(cctx, http.MethodPost,
				"/assistant/conversations/"+url.PathEscape(conversationID)+"/messages",
				map[string]string{"content": content})
		},
		Notify: v.deps.notifier(),
	}

	if err := send.Run(ctx, text); err != nil {
		if api.IsRateLimited(err) {
			v.startCountdown(api.RetryAfterValue(err))
		}
		return v.deps.handleAuthError(err)
	}

	v.deps.Cache.Invalidate(KeyConversations)
	v.startPolling(conversationID, sentAt)
	return nil
}

// SelectConversation switches the active conversation, cancelling any poll
// attached to the previous one.
func (v *AssistantView) SelectConversation(conversationID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.activeConv != conversationID {
		v.stopPollLocked()
		v.activeConv = conversationID
	}
}

// Close stops the update poll. Call on teardown.
func (v *AssistantView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopPollLocked()
}

// State reports the current loop state.
func (v *AssistantView) State() PollState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.now().Before(v.limitedUntil) {
		return StateRateLimited
	}
	if v.pollCancel != nil {
		return StatePolling
	}
	return StateIdle
}

// SendDisabled reports whether sending is blocked by the countdown.
func (v *AssistantView) SendDisabled() bool {
	return v.CountdownRemaining() > 0
}

// CountdownRemaining returns the whole seconds left before sending re-enables,
// rounding up so a freshly started 30s countdown reads 30.
func (v *AssistantView) CountdownRemaining() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	left := v.limitedUntil.Sub(v.now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (v *AssistantView) startCountdown(retryAfter any) {
	d := normalize.CoerceRetryAfter(retryAfter, v.now())
	if d <= 0 {
		// Rate limited without a usable retryAfter: hold a short default.
		d = 30 * time.Second
	}
	v.mu.Lock()
	v.limitedUntil = v.now().Add(d)
	v.stopPollLocked()
	v.mu.Unlock()
	metrics.RateLimitWaitsTotal.Inc()
	v.deps.log().Info("rate limited", zap.Duration("retry_after", d))
}

func (v *AssistantView) startPolling(conversationID string, since time.Time) {
	v.mu.Lock()
	v.stopPollLocked()
	ctx, cancel := context.WithCancel(context.Background())
	v.pollCancel = cancel
	v.pollGen++
	gen := v.pollGen
	v.activeConv = conversationID
	v.mu.Unlock()

	go v.pollLoop(ctx, gen, conversationID, since)
}

func (v *AssistantView) stopPollLocked() {
	if v.pollCancel != nil {
		v.pollCancel()
		v.pollCancel = nil
	}
}

// finishPoll clears the loop handle, but only for the loop that owns it: a
// newer loop may already have replaced it.
func (v *AssistantView) finishPoll(gen int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pollGen == gen {
		v.stopPollLocked()
	}
}

func (v *AssistantView) pollLoop(ctx context.Context, gen int, conversationID string, since time.Time) {
	defer v.finishPoll(gen)

	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	path := "/assistant/conversations/" + url.PathEscape(conversationID) +
		"/messages/updates?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		raw, err := v.deps.API.GetJSON(ctx, path)
		if err != nil {
			switch {
			case api.IsRateLimited(err):
				metrics.PollTicksTotal.WithLabelValues("rate_limited").Inc()
				v.startCountdown(api.RetryAfterValue(err))
				return
			case api.IsAuthError(err):
				metrics.PollTicksTotal.WithLabelValues("auth_error").Inc()
				_ = v.deps.handleAuthError(err)
				return
			default:
				// Transient failure: keep polling.
				metrics.PollTicksTotal.WithLabelValues("error").Inc()
				continue
			}
		}

		messages := normalize.AssistantMessages(raw)
		status := normalize.AsObject(raw).String("", "status", "state")

		if len(messages) > 0 {
			v.mergeMessages(conversationID, messages)
			v.deps.Cache.Invalidate(KeyConversations)
			metrics.PollTicksTotal.WithLabelValues("resolved").Inc()
			return
		}

		switch status {
		case model.MessageCompleted, model.MessageAwaitingUser, model.MessageError, model.MessageFailed:
			metrics.PollTicksTotal.WithLabelValues("resolved").Inc()
			return
		case model.MessageRateLimited:
			metrics.PollTicksTotal.WithLabelValues("rate_limited").Inc()
			v.startCountdown(normalize.AsObject(raw).Pick("retry_after", "retryAfter"))
			return
		}
		metrics.PollTicksTotal.WithLabelValues("empty").Inc()
	}
}

// mergeMessages appends polled messages to the cached history, deduplicating
// by ID.
func (v *AssistantView) mergeMessages(conversationID string, incoming []model.AssistantMessage) {
	key := KeyMessages(conversationID)
	existing, _ := v.deps.Cache.Get(key)
	current, _ := existing.([]model.AssistantMessage)

	seen := make(map[string]bool, len(current))
	for _, m := range current {
		seen[m.ID] = true
	}
	merged := make([]model.AssistantMessage, len(current), len(current)+len(incoming))
	copy(merged, current)
	for _, m := range incoming {
		if m.ID == "" || !seen[m.ID] {
			merged = append(merged, m)
		}
	}
	v.deps.Cache.Set(key, merged)
}
