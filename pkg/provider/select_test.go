package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type stubProvider struct {
	name     string
	probeErr error
	output   string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Available(ctx context.Context) error { return s.probeErr }

func (s *stubProvider) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	return s.output, nil
}

func stubFactory(p provider.Provider) provider.Factory {
	return func(ctx context.Context) (provider.Provider, error) { return p, nil }
}

func unavailable(id, reason string) error {
	return errors.WithStack(&provider.UnavailableError{Provider: id, Reason: reason})
}

func TestSelector_Explicit(t *testing.T) {
	ctx := context.Background()

	t.Run("available_provider_selected", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{
			provider.IDGemini: stubFactory(&stubProvider{name: provider.IDGemini}),
		})
		p, err := s.Select(ctx, provider.IDGemini)
		require.NoError(t, err, "explicit available provider should be selected")
		assert.Equal(t, provider.IDGemini, p.Name())
	})

	t.Run("unavailable_provider_fails_without_fallback", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{
			provider.IDClaude: stubFactory(&stubProvider{
				name:     provider.IDClaude,
				probeErr: unavailable(provider.IDClaude, "binary not found"),
			}),
			provider.IDGemini: stubFactory(&stubProvider{name: provider.IDGemini}),
		})
		_, err := s.Select(ctx, provider.IDClaude)
		require.Error(t, err, "explicit selection must not fall back")

		var unavailErr *provider.UnavailableError
		require.ErrorAs(t, err, &unavailErr, "failure should carry the probe error")
		assert.Equal(t, provider.IDClaude, unavailErr.Provider)
	})

	t.Run("unknown_name_rejected", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{})
		_, err := s.Select(ctx, "copilot")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider", "error should name the problem")
	})
}

func TestSelector_Auto(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers_catalog_order", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{
			provider.IDClaude: stubFactory(&stubProvider{name: provider.IDClaude}),
			provider.IDGemini: stubFactory(&stubProvider{name: provider.IDGemini}),
			provider.IDOpenAI: stubFactory(&stubProvider{name: provider.IDOpenAI}),
		})
		p, err := s.Select(ctx, provider.Auto)
		require.NoError(t, err)
		assert.Equal(t, provider.IDClaude, p.Name(), "claude comes first in preference order")
	})

	t.Run("falls_back_past_unavailable", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{
			provider.IDClaude: stubFactory(&stubProvider{
				name:     provider.IDClaude,
				probeErr: unavailable(provider.IDClaude, "binary not found"),
			}),
			provider.IDGemini: stubFactory(&stubProvider{
				name:     provider.IDGemini,
				probeErr: unavailable(provider.IDGemini, "binary not found"),
			}),
			provider.IDOpenAI: stubFactory(&stubProvider{name: provider.IDOpenAI}),
		})
		p, err := s.Select(ctx, provider.Auto)
		require.NoError(t, err)
		assert.Equal(t, provider.IDOpenAI, p.Name(), "auto should settle on the last candidate")
	})

	t.Run("exhaustion_lists_every_attempt", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{
			provider.IDClaude: stubFactory(&stubProvider{
				name:     provider.IDClaude,
				probeErr: unavailable(provider.IDClaude, "binary not found"),
			}),
			provider.IDOpenAI: stubFactory(&stubProvider{
				name:     provider.IDOpenAI,
				probeErr: unavailable(provider.IDOpenAI, "no API key stored"),
			}),
		})
		_, err := s.Select(ctx, provider.Auto)
		require.Error(t, err, "exhausting all candidates should fail")

		var noneErr *provider.NoAvailableError
		require.ErrorAs(t, err, &noneErr)
		assert.Len(t, noneErr.Attempts, 3, "every catalog entry should be accounted for")
		assert.Contains(t, err.Error(), "binary not found", "message should explain each failure")
		assert.Contains(t, err.Error(), "no API key stored")
		assert.Contains(t, err.Error(), "not registered", "missing factory should be reported too")
	})

	t.Run("empty_name_means_auto", func(t *testing.T) {
		s := provider.NewSelectorWith(map[string]provider.Factory{
			provider.IDGemini: stubFactory(&stubProvider{name: provider.IDGemini}),
		})
		p, err := s.Select(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, provider.IDGemini, p.Name())
	})
}

func TestCatalog_PreferenceOrder(t *testing.T) {
	var ids []string
	for _, meta := range provider.Catalog() {
		ids = append(ids, meta.ID)
	}
	assert.Equal(t, []string{provider.IDClaude, provider.IDGemini, provider.IDOpenAI}, ids,
		"local CLI agents come before the metered API")

	for _, meta := range provider.Catalog() {
		if meta.Kind == provider.KindAPI {
			assert.True(t, meta.RequiresSecret, "API providers need a stored key")
		}
	}
}
