package client

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

func TestNew(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		_, err := New(context.Background(), &sellsy.Config{ClientSecret: "secret"})
		assert.ErrorIs(t, err, sellsy.ErrClientIDRequired)

		_, err = New(context.Background(), &sellsy.Config{ClientID: "id"})
		assert.ErrorIs(t, err, sellsy.ErrClientSecretRequired)
	})

	t.Run("exchanges credentials and sweeps the catalog", func(t *testing.T) {
		var catalogRequests int

		mux := nethttp.NewServeMux()
		mux.HandleFunc("/oauth2/access-tokens", func(w nethttp.ResponseWriter, r *nethttp.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))

			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "bearer",
				"expires_in":   3600,
			})
		})
		mux.HandleFunc("/custom-fields", func(w nethttp.ResponseWriter, r *nethttp.Request) {
			catalogRequests++

			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			_, _ = w.Write([]byte(`{
				"data": [{"id": 7, "name": "Secteur", "related_objects": ["company"]}],
				"pagination": {"limit": 100, "count": 1, "total": 1, "offset": ""}
			}`))
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		client, err := New(context.Background(), &sellsy.Config{
			APIEndpoint:      server.URL,
			AuthURL:          server.URL + "/oauth2/access-tokens",
			ClientID:         "id",
			ClientSecret:     "secret",
			WithCustomFields: true,
		})
		require.NoError(t, err)

		assert.Equal(t, 1, catalogRequests)
		require.NotNil(t, client.Catalog())
		assert.Equal(t, []int{7}, client.Catalog().FieldIDs("company"))

		token, err := client.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "test-token", token)
	})

	t.Run("skips the catalog sweep when custom fields are disabled", func(t *testing.T) {
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}))
		defer server.Close()

		client, err := NewWithTokenManager(context.Background(), &sellsy.Config{
			APIEndpoint: server.URL,
		}, staticTokenManager{})
		require.NoError(t, err)
		assert.Nil(t, client.Catalog())
		assert.NotNil(t, client.CustomFields())
		assert.NotNil(t, client.Records())
	})
}
