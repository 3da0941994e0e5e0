package cli

import (
	"context"

	"github.com/dshills/gavel/internal/cache"
	"github.com/dshills/gavel/internal/logging"
	"github.com/dshills/gavel/internal/providers"
	"github.com/dshills/gavel/internal/review"
)

// Generation parameters shared by every stage call.
const (
	generateMaxTokens   = 8192
	generateTemperature = 0.1
)

// newGenerator glues a provider client and the response cache into the
// narrow Generator the pipeline consumes. Cache misses call the provider;
// cache write failures are logged and ignored so a broken cache never
// aborts a review.
func newGenerator(client providers.Client, store *cache.Store) review.Generator {
	return review.GeneratorFunc(func(ctx context.Context, system, user string) (string, error) {
		key := cache.Key(client.Name(), client.Model(), system, user)
		if cached, ok := store.Get(key); ok {
			logging.Log.Debugw("cache hit", "provider", client.Name(), "model", client.Model())
			return cached, nil
		}

		resp, err := client.Generate(ctx, providers.GenerateRequest{
			System:      system,
			User:        user,
			MaxTokens:   generateMaxTokens,
			Temperature: generateTemperature,
		})
		if err != nil {
			return "", err
		}

		if err := store.Put(key, resp.Content); err != nil {
			logging.Log.Warnw("cache write failed", "error", err)
		}
		return resp.Content, nil
	})
}
