package provider

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Auto is the provider name that triggers preference-order fallback.
const Auto = "auto"

// 🎛️ Selector resolves a requested provider name to a ready instance. An
// explicit name must resolve and probe cleanly or selection fails; Auto
// walks the catalog in preference order and settles on the first provider
// that reports available.
type Selector struct {
	factories map[string]Factory
}

// NewSelector builds a selector over the globally registered factories.
func NewSelector() *Selector {
	resolved := make(map[string]Factory, len(factories))
	for id, factory := range factories {
		resolved[id] = factory
	}
	return &Selector{factories: resolved}
}

// NewSelectorWith builds a selector over an explicit factory set. Used by
// tests and by callers that wire factories with extra dependencies.
func NewSelectorWith(overrides map[string]Factory) *Selector {
	return &Selector{factories: overrides}
}

// Select resolves name to a provider that has passed its availability
// probe. With Auto it returns the first available provider in catalog
// order, or a NoAvailableError listing every probe failure.
func (s *Selector) Select(ctx context.Context, name string) (Provider, error) {
	if name == Auto || name == "" {
		return s.selectAuto(ctx)
	}

	factory := s.factories[name]
	if factory == nil {
		return nil, errors.Errorf("unknown provider %q", name)
	}

	p, err := factory(ctx)
	if err != nil {
		return nil, errors.Errorf("creating provider %s: %w", name, err)
	}
	if err := p.Available(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Selector) selectAuto(ctx context.Context) (Provider, error) {
	attempts := make(map[string]error)

	for _, meta := range Catalog() {
		factory := s.factories[meta.ID]
		if factory == nil {
			attempts[meta.ID] = errors.New("not registered")
			continue
		}

		p, err := factory(ctx)
		if err != nil {
			attempts[meta.ID] = err
			continue
		}
		if err := p.Available(ctx); err != nil {
			zerolog.Ctx(ctx).Debug().
				Str("provider", meta.ID).
				Err(err).
				Msg("provider not available, trying next")
			attempts[meta.ID] = err
			continue
		}

		zerolog.Ctx(ctx).Debug().
			Str("provider", meta.ID).
			Msg("selected provider")
		return p, nil
	}

	return nil, errors.WithStack(&NoAvailableError{Attempts: attempts})
}
