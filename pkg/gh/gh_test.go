package gh_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v60/github"
	"github.com/hmoritama/repolens/pkg/gh"
	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRef(t *testing.T) ref.Reference {
	t.Helper()
	r, err := ref.Parse("https://github.com/octocat/Hello-World")
	require.NoError(t, err)
	return r
}

func stubProber(t *testing.T, handler http.HandlerFunc, hasToken bool) *gh.Prober {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	return gh.NewProberWithClient(client, hasToken)
}

func TestProbe_Public(t *testing.T) {
	p := stubProber(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/Hello-World", r.URL.Path, "probe should hit the repos endpoint")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 1, "name": "Hello-World", "private": false}`))
	}, false)

	result := p.Probe(context.Background(), testRef(t))
	assert.Equal(t, gh.AccessPublic, result.Access, "reachable repo should probe public")
}

func TestProbe_NotFound(t *testing.T) {
	notFound := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}

	t.Run("without_token_hints_at_token", func(t *testing.T) {
		result := stubProber(t, notFound, false).Probe(context.Background(), testRef(t))
		assert.Equal(t, gh.AccessNotFound, result.Access)
		assert.Contains(t, result.Hint, "GITHUB_TOKEN", "hint should mention the token for maybe-private repos")
	})

	t.Run("with_token_is_definitive", func(t *testing.T) {
		result := stubProber(t, notFound, true).Probe(context.Background(), testRef(t))
		assert.Equal(t, gh.AccessNotFound, result.Access)
		assert.NotContains(t, result.Hint, "GITHUB_TOKEN", "a token was already in play")
	})
}

func TestProbe_NetworkFailureIsAdvisory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	clientURL := srv.URL
	srv.Close()

	client := github.NewClient(nil)
	base, err := url.Parse(clientURL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	result := gh.NewProberWithClient(client, false).Probe(context.Background(), testRef(t))
	assert.Equal(t, gh.AccessUnknown, result.Access, "network failures must not look like missing repos")
	assert.NotEmpty(t, result.Hint)
}

func TestProbe_ServerErrorIsAdvisory(t *testing.T) {
	p := stubProber(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, false)

	result := p.Probe(context.Background(), testRef(t))
	assert.Equal(t, gh.AccessUnknown, result.Access, "server errors are not a verdict on the repository")
}
