package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

type staticTokenManager struct {
	token string
	calls atomic.Int32
	err   error
}

func (m *staticTokenManager) GetToken(_ context.Context) (string, error) {
	m.calls.Add(1)

	return m.token, m.err
}

func (m *staticTokenManager) RefreshToken(_ context.Context) error { return m.err }

func (m *staticTokenManager) SetToken(token string, _ time.Time) { m.token = token }

func TestClient_Do(t *testing.T) {
	t.Run("sends bearer token and query parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Equal(t, "/companies", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			assert.Equal(t, []string{"cf.1", "cf.2"}, r.URL.Query()["embed[]"])

			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer server.Close()

		manager := &staticTokenManager{token: "test-token"}
		client := NewClient(server.URL, manager)

		query := url.Values{
			"limit":   []string{"100"},
			"embed[]": []string{"cf.1", "cf.2"},
		}

		resp, err := client.Get(context.Background(), "/companies", query)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"data":[]}`, string(resp.Body))
	})

	t.Run("fetches the token before every call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		manager := &staticTokenManager{token: "test-token"}
		client := NewClient(server.URL, manager)

		for i := 0; i < 3; i++ {
			_, err := client.Get(context.Background(), "/companies", nil)
			require.NoError(t, err)
		}

		assert.Equal(t, int32(3), manager.calls.Load())
	})

	t.Run("retries transient failures with exponential backoff", func(t *testing.T) {
		var attempts atomic.Int32

		timestamps := make([]time.Time, 0, 5)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timestamps = append(timestamps, time.Now())

			if attempts.Add(1) < 5 {
				w.WriteHeader(http.StatusInternalServerError)

				return
			}

			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer server.Close()

		unit := 10 * time.Millisecond
		client := NewClient(server.URL, &staticTokenManager{token: "t"},
			WithRetryConfig(5, unit))

		resp, err := client.Get(context.Background(), "/companies", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(5), attempts.Load())

		// Delays before retries 1..4 are 2, 4, 8 and 16 units.
		require.Len(t, timestamps, 5)

		for k, factor := range []time.Duration{2, 4, 8, 16} {
			delay := timestamps[k+1].Sub(timestamps[k])
			assert.GreaterOrEqual(t, delay, factor*unit)
		}
	})

	t.Run("retries client errors like server errors", func(t *testing.T) {
		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 2 {
				w.WriteHeader(http.StatusTooManyRequests)

				return
			}

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, &staticTokenManager{token: "t"},
			WithRetryConfig(5, time.Millisecond))

		_, err := client.Get(context.Background(), "/companies", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("fails after the attempt budget is exhausted", func(t *testing.T) {
		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"code":502,"message":"bad gateway"}}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, &staticTokenManager{token: "t"},
			WithRetryConfig(5, time.Millisecond))

		resp, err := client.Get(context.Background(), "/companies", nil)
		require.Error(t, err)
		assert.Equal(t, int32(5), attempts.Load())

		var exhausted *sellsy.ExhaustedRetriesError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, "/companies", exhausted.Endpoint)
		assert.Equal(t, 5, exhausted.Attempts)

		var respErr *sellsy.ResponseError
		require.ErrorAs(t, err, &respErr)
		assert.Equal(t, http.StatusBadGateway, respErr.StatusCode)
		assert.Equal(t, "bad gateway", respErr.Err.Message)

		// The final response survives exhaustion
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("does not retry a canceled context", func(t *testing.T) {
		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL, &staticTokenManager{token: "t"},
			WithRetryConfig(5, time.Second))

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := client.Get(ctx, "/companies", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, attempts.Load(), int32(5))
	})

	t.Run("fails fast when the token exchange fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not reach the API without a token")
		}))
		defer server.Close()

		manager := &staticTokenManager{err: &sellsy.AuthError{Err: sellsy.ErrEmptyAccessToken}}
		client := NewClient(server.URL, manager)

		_, err := client.Get(context.Background(), "/companies", nil)
		require.Error(t, err)
		assert.True(t, sellsy.IsAuthError(err))
	})
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokenManager{token: "t"})

	resp, err := client.Post(context.Background(), "/searches", map[string]string{"q": "acme"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
