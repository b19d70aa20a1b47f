// Package joke fetches a joke to show alongside a classified hand. Fetching never
// fails from the caller's point of view: Teller falls back to domain.FallbackJoke.
package joke

import (
	"context"
	"log/slog"

	"pokerhand/internal/config"
	"pokerhand/internal/domain"
)

type Provider interface {
	Random(ctx context.Context) (domain.Joke, error)
}

// Teller wraps a provider with the fallback policy.
type Teller struct {
	provider Provider
	log      *slog.Logger
}

func WithFallback(p Provider, log *slog.Logger) *Teller {
	return &Teller{provider: p, log: log}
}

func (t *Teller) Tell(ctx context.Context) domain.Joke {
	if t == nil || t.provider == nil {
		return domain.FallbackJoke
	}

	j, err := t.provider.Random(ctx)
	if err != nil {
		t.log.Warn("joke.fallback", "err", err)
		return domain.FallbackJoke
	}
	if j.Empty() {
		t.log.Warn("joke.fallback", "err", "empty joke")
		return domain.FallbackJoke
	}
	return j
}

// New picks the feed provider when a feed URL is configured and the JSON API otherwise.
func New(cfg config.JokeConfig, log *slog.Logger) *Teller {
	var p Provider
	switch {
	case cfg.FeedURL != "":
		p = NewFeed(cfg.FeedURL, cfg.Timeout)
	case cfg.APIURL != "":
		p = NewAPI(cfg.APIURL, cfg.Timeout)
	}
	return WithFallback(p, log)
}
