package openai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hmoritama/repolens/pkg/provider"
	"github.com/hmoritama/repolens/pkg/provider/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys struct {
	key string
}

func (f *fakeKeys) APIKey(ctx context.Context) ([]byte, error) {
	return []byte(f.key), nil
}

func (f *fakeKeys) HasKey(ctx context.Context) (bool, error) {
	return f.key != "", nil
}

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_Invoke(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"), "stored key should authenticate the call")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "analysis text"}}]
		}`))
	})

	p := openai.New(&fakeKeys{key: "test-key"}, openai.WithBaseURL(srv.URL))
	out, err := p.Invoke(context.Background(), "describe this repo", 10*time.Second)
	require.NoError(t, err, "invoke should succeed")
	assert.Equal(t, "analysis text", out, "assistant content should be returned")
}

func TestProvider_APIErrorRedacted(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{
			"error": {"message": "invalid key sk-leaked12345678 provided", "type": "invalid_request_error"}
		}`))
	})

	p := openai.New(&fakeKeys{key: "test-key"}, openai.WithBaseURL(srv.URL))
	_, err := p.Invoke(context.Background(), "prompt", 10*time.Second)
	require.Error(t, err, "unauthorized call should fail")

	var execErr *provider.ExecutionError
	require.ErrorAs(t, err, &execErr, "API rejection should map to ExecutionError")
	assert.Contains(t, execErr.Detail, "HTTP 401", "detail should carry the status")
	assert.NotContains(t, execErr.Detail, "sk-leaked12345678", "echoed key must be redacted")
}

func TestProvider_Timeout(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})

	p := openai.New(&fakeKeys{key: "test-key"}, openai.WithBaseURL(srv.URL))
	_, err := p.Invoke(context.Background(), "prompt", 100*time.Millisecond)
	require.Error(t, err, "slow server should time out")

	var timeoutErr *provider.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr, "deadline should map to TimeoutError")
}

func TestProvider_Available(t *testing.T) {
	t.Run("with_stored_key", func(t *testing.T) {
		p := openai.New(&fakeKeys{key: "test-key"})
		assert.NoError(t, p.Available(context.Background()), "stored key means available")
	})

	t.Run("without_stored_key", func(t *testing.T) {
		p := openai.New(&fakeKeys{})
		err := p.Available(context.Background())
		require.Error(t, err, "no key means unavailable")

		var unavailErr *provider.UnavailableError
		require.ErrorAs(t, err, &unavailErr)
		assert.Contains(t, unavailErr.Hint, "secret set", "hint should point at the setup command")
	})
}

func TestProvider_TransportError(t *testing.T) {
	// Closed immediately, so the client sees a refused connection.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := openai.New(&fakeKeys{key: "test-key"}, openai.WithBaseURL(url))
	_, err := p.Invoke(context.Background(), "prompt", 5*time.Second)
	require.Error(t, err)

	var unavailErr *provider.UnavailableError
	assert.ErrorAs(t, err, &unavailErr, "transport failure should map to UnavailableError")
}
