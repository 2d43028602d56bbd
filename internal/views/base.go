package views

import (
	"context"

	"github.com/circulab/marketplace-go/internal/api"
	"github.com/circulab/marketplace-go/internal/auth"
	"github.com/circulab/marketplace-go/internal/cache"
	"github.com/circulab/marketplace-go/internal/mutation"
	"github.com/circulab/marketplace-go/pkg/logger"
)

// Deps carries the shared collaborators every view needs.
type Deps struct {
	API    *api.Client
	Cache  *cache.Cache
	Tokens auth.TokenStore
	Notify mutation.Notifier
	Logger *logger.Logger
}

func (d *Deps) notifier() mutation.Notifier {
	if d.Notify == nil {
		return mutation.NopNotifier{}
	}
	return d.Notify
}

func (d *Deps) log() *logger.Logger {
	if d.Logger == nil {
		return logger.NewNop()
	}
	return d.Logger
}

// handleAuthError clears the session on a 401/403 so subsequent reads treat
// the user as logged out. Returns err unchanged for the caller to propagate.
func (d *Deps) handleAuthError(err error) error {
	if api.IsAuthError(err) {
		if d.Tokens != nil {
			_ = d.Tokens.Clear()
		}
		d.Cache.Clear()
	}
	return err
}

// query runs a cached fetch for key, normalizing the response with shape.
func query[T any](ctx context.Context, d *Deps, key cache.Key, path string, shape func(any) T) (T, error) {
	v, err := d.Cache.GetOrFetch(ctx, key, func(fctx context.Context) (any, error) {
		raw, ferr := d.API.GetJSON(fctx, path)
		if ferr != nil {
			return nil, ferr
		}
		return shape(raw), nil
	})
	if err != nil {
		var zero T
		return zero, d.handleAuthError(err)
	}
	out, _ := v.(T)
	return out, nil
}
