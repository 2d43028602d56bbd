package mutation

import (
	"context"

	"github.com/circulab/marketplace-go/internal/cache"
	"github.com/circulab/marketplace-go/pkg/metrics"
)

// Optimistic is a write operation with a speculative cache update. One value
// describes one mutation kind (ignore suggestion, update profile, ...) and is
// reused across calls.
//
// Run follows a fixed protocol:
//  1. cancel any in-flight refetch for the key, so a stale response cannot
//     overwrite the optimistic value
//  2. snapshot the current cache value
//  3. write the predicted value synchronously
//  4. perform the network call
//  5. on success, commit the server's authoritative value (or keep the
//     prediction when the response has no body); on failure, restore the
//     exact snapshot
//  6. regardless of outcome, mark the key stale and fire the cascade so the
//     next read reconciles fully
type Optimistic[A any, T any] struct {
	Cache *cache.Cache
	Key   cache.Key

	// Predict computes the speculative cache value from the current one.
	Predict func(current T, args A) T
	// Call performs the write and returns the raw response body.
	Call func(ctx context.Context, args A) ([]byte, error)
	// Commit folds the server response into the cache value. Optional; when
	// nil or when the response body is empty, the prediction stands.
	Commit func(predicted T, response []byte) T

	Notify Notifier
	// SuccessMessage is shown after a successful call. Empty disables it.
	SuccessMessage string
	// ErrorMessage maps a failure to its toast text. Defaults to
	// mutation.ErrorMessage. A mapped "" suppresses the toast.
	ErrorMessage func(error) string
	// CascadeTrigger names the invalidation cascade fired after settling.
	CascadeTrigger string
}

// Run executes the mutation with args.
func (m *Optimistic[A, T]) Run(ctx context.Context, args A) error {
	m.Cache.CancelRefetch(m.Key)

	snapshot, had := m.Cache.Get(m.Key)
	current, _ := snapshot.(T)
	predicted := m.Predict(current, args)
	m.Cache.Set(m.Key, predicted)

	response, err := m.Call(ctx, args)

	if err != nil {
		if had {
			m.Cache.Set(m.Key, snapshot)
		} else {
			m.Cache.Delete(m.Key)
		}
		metrics.RecordRollback(m.Key.String())
		m.notifyError(err)
	} else {
		final := predicted
		if m.Commit != nil && len(response) > 0 {
			final = m.Commit(predicted, response)
		}
		m.Cache.Set(m.Key, final)
		if m.SuccessMessage != "" {
			m.notifier().Success(m.SuccessMessage)
		}
	}

	m.Cache.Invalidate(m.Key)
	if m.CascadeTrigger != "" {
		m.Cache.Cascade(m.CascadeTrigger)
	}
	return err
}

func (m *Optimistic[A, T]) notifier() Notifier {
	if m.Notify == nil {
		return NopNotifier{}
	}
	return m.Notify
}

func (m *Optimistic[A, T]) notifyError(err error) {
	mapper := m.ErrorMessage
	if mapper == nil {
		mapper = ErrorMessage
	}
	if msg := mapper(err); msg != "" {
		m.notifier().Error(msg)
	}
}
