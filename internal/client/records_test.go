package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/sellsy-client/internal/http"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

type staticTokenManager struct{}

func (staticTokenManager) GetToken(_ context.Context) (string, error) { return "test-token", nil }

func (staticTokenManager) RefreshToken(_ context.Context) error { return nil }

func (staticTokenManager) SetToken(_ string, _ time.Time) {}

func newTestHTTPClient(serverURL string) *http.Client {
	return http.NewClient(serverURL, staticTokenManager{},
		http.WithRetryConfig(2, time.Millisecond))
}

func TestRecordsClient_FetchPage(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "/companies", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "id", r.URL.Query().Get("order"))
		assert.Equal(t, "asc", r.URL.Query().Get("direction"))

		_, _ = w.Write([]byte(`{
			"data": [{"id": 1, "name": "Acme"}],
			"pagination": {"limit": 100, "count": 1, "total": 1, "offset": ""}
		}`))
	}))
	defer server.Close()

	records := NewRecordsClient(newTestHTTPClient(server.URL), nil, nil)

	page, err := records.FetchPage(context.Background(), "companies", pageParams("", nil))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, json.Number("1"), page.Data[0]["id"])
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestRecordsClient_Fetch(t *testing.T) {
	t.Run("walks every page until the collection is exhausted", func(t *testing.T) {
		offsets := make([]string, 0, 3)

		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			offset := r.URL.Query().Get("offset")
			offsets = append(offsets, offset)

			switch offset {
			case "":
				writePage(w, recordsPage(1, 100), "o-100", 250)
			case "o-100":
				writePage(w, recordsPage(101, 100), "o-200", 250)
			case "o-200":
				writePage(w, recordsPage(201, 50), "", 250)
			default:
				t.Errorf("unexpected offset %q", offset)
			}
		}))
		defer server.Close()

		records := NewRecordsClient(newTestHTTPClient(server.URL), nil, nil)

		result, err := records.Fetch(context.Background(), "companies", "company", "")
		require.NoError(t, err)
		assert.Len(t, result.Rows, 250)
		assert.Empty(t, result.ResumeCursor)
		assert.Equal(t, []string{"", "o-100", "o-200"}, offsets)
	})

	t.Run("stops once the reported total is reached", func(t *testing.T) {
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			// The server keeps handing out offsets past the total
			writePage(w, recordsPage(1, 2), "o-next", 2)
		}))
		defer server.Close()

		records := NewRecordsClient(newTestHTTPClient(server.URL), nil, nil)

		result, err := records.Fetch(context.Background(), "companies", "company", "")
		require.NoError(t, err)
		assert.Len(t, result.Rows, 2)
		assert.Empty(t, result.ResumeCursor)
	})

	t.Run("resumes from the supplied cursor", func(t *testing.T) {
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			assert.Equal(t, "o-42", r.URL.Query().Get("offset"))

			writePage(w, recordsPage(43, 1), "", 43)
		}))
		defer server.Close()

		records := NewRecordsClient(newTestHTTPClient(server.URL), nil, nil)

		result, err := records.Fetch(context.Background(), "companies", "company", "o-42")
		require.NoError(t, err)
		assert.Len(t, result.Rows, 1)
	})

	t.Run("returns partial rows and a resume cursor on page failure", func(t *testing.T) {
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if r.URL.Query().Get("offset") == "o-2" {
				w.WriteHeader(nethttp.StatusBadGateway)

				return
			}

			writePage(w, recordsPage(1, 2), "o-2", 5)
		}))
		defer server.Close()

		records := NewRecordsClient(newTestHTTPClient(server.URL), nil, nil)

		result, err := records.Fetch(context.Background(), "companies", "company", "")
		require.Error(t, err)
		assert.True(t, sellsy.IsExhaustedRetries(err))
		require.NotNil(t, result)
		assert.Len(t, result.Rows, 2)
		assert.Equal(t, sellsy.Cursor("o-2"), result.ResumeCursor)
	})

	t.Run("requests the embed keys of the entity type", func(t *testing.T) {
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			assert.Equal(t, []string{"cf.10", "cf.20"}, r.URL.Query()["embed[]"])

			writePage(w, recordsPage(1, 1), "", 1)
		}))
		defer server.Close()

		catalog := sellsy.NewCustomFieldCatalog([]sellsy.CustomField{
			{ID: 10, Name: "Secteur", RelatedObjects: []string{"company"}},
			{ID: 20, Name: "Origine", RelatedObjects: []string{"third"}},
			{ID: 30, Name: "Urgence", RelatedObjects: []string{"opportunity"}},
		})

		records := NewRecordsClient(newTestHTTPClient(server.URL), catalog, nil)

		_, err := records.Fetch(context.Background(), "companies", "company", "")
		require.NoError(t, err)
	})

	t.Run("splits oversized embed sets and merges backfill batches", func(t *testing.T) {
		var embedCounts []int

		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			keys := r.URL.Query()["embed[]"]
			embedCounts = append(embedCounts, len(keys))

			// The backfill batch carries the last definition; answer it in
			// reverse record order so positional merging would misassign
			if len(keys) > 0 && keys[len(keys)-1] == "cf.1310" {
				_, _ = fmt.Fprint(w, `{
					"data": [
						{"id": 2, "created": "2024-01-02T00:00:00+01:00",
						 "_embed": {"custom_fields": [
						   {"id": 1310, "name": "Zone", "value": "sud"}]}},
						{"id": 1, "created": "2024-01-01T00:00:00+01:00",
						 "_embed": {"custom_fields": [
						   {"id": 1310, "name": "Zone", "value": "nord"}]}}
					],
					"pagination": {"limit": 100, "count": 2, "total": 2, "offset": ""}
				}`)

				return
			}

			_, _ = fmt.Fprint(w, `{
				"data": [
					{"id": 1, "created": "2024-01-01T00:00:00+01:00", "name": "Acme",
					 "_embed": {"custom_fields": [
					   {"id": 10, "name": "Secteur", "value": "industrie"}]}},
					{"id": 2, "created": "2024-01-02T00:00:00+01:00", "name": "Globex",
					 "_embed": {"custom_fields": [
					   {"id": 10, "name": "Secteur", "value": "services"}]}}
				],
				"pagination": {"limit": 100, "count": 2, "total": 2, "offset": ""}
			}`)
		}))
		defer server.Close()

		fields := make([]sellsy.CustomField, 0, 301)
		fields = append(fields, sellsy.CustomField{ID: 10, Name: "Secteur", RelatedObjects: []string{"company"}})

		for id := 11; len(fields) < 300; id++ {
			fields = append(fields, sellsy.CustomField{
				ID:             id,
				Name:           fmt.Sprintf("Champ %d", id),
				RelatedObjects: []string{"company"},
			})
		}

		fields = append(fields, sellsy.CustomField{ID: 1310, Name: "Zone", RelatedObjects: []string{"company"}})

		catalog := sellsy.NewCustomFieldCatalog(fields)

		records := NewRecordsClient(newTestHTTPClient(server.URL), catalog, nil)

		result, err := records.Fetch(context.Background(), "companies", "company", "")
		require.NoError(t, err)

		// One primary request with a full batch, one backfill with the rest
		assert.Equal(t, []int{300, 1}, embedCounts)

		require.Len(t, result.Rows, 2)
		assert.Equal(t, "industrie", result.Rows[0]["Secteur"])
		assert.Equal(t, "nord", result.Rows[0]["Zone"])
		assert.Equal(t, "services", result.Rows[1]["Secteur"])
		assert.Equal(t, "sud", result.Rows[1]["Zone"])
	})

	t.Run("skips unmatched backfill records", func(t *testing.T) {
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			keys := r.URL.Query()["embed[]"]
			if len(keys) > 0 && keys[len(keys)-1] == "cf.1310" {
				_, _ = fmt.Fprint(w, `{
					"data": [
						{"id": 99, "created": "2024-06-01T00:00:00+01:00",
						 "_embed": {"custom_fields": [
						   {"id": 1310, "name": "Zone", "value": "est"}]}}
					],
					"pagination": {"limit": 100, "count": 1, "total": 1, "offset": ""}
				}`)

				return
			}

			_, _ = fmt.Fprint(w, `{
				"data": [{"id": 1, "created": "2024-01-01T00:00:00+01:00", "name": "Acme"}],
				"pagination": {"limit": 100, "count": 1, "total": 1, "offset": ""}
			}`)
		}))
		defer server.Close()

		fields := make([]sellsy.CustomField, 0, 301)
		for id := 10; len(fields) < 300; id++ {
			fields = append(fields, sellsy.CustomField{
				ID:             id,
				Name:           fmt.Sprintf("Champ %d", id),
				RelatedObjects: []string{"company"},
			})
		}

		fields = append(fields, sellsy.CustomField{ID: 1310, Name: "Zone", RelatedObjects: []string{"company"}})

		records := NewRecordsClient(newTestHTTPClient(server.URL), sellsy.NewCustomFieldCatalog(fields), nil)

		result, err := records.Fetch(context.Background(), "companies", "company", "")
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, "Acme", result.Rows[0]["name"])
		assert.NotContains(t, result.Rows[0], "Zone")
	})
}

func TestEmbedBatches(t *testing.T) {
	t.Run("nil catalog disables embedding", func(t *testing.T) {
		records := NewRecordsClient(nil, nil, nil)
		assert.Nil(t, records.embedBatches("company"))
	})

	t.Run("unknown entity type falls back to its own name", func(t *testing.T) {
		catalog := sellsy.NewCustomFieldCatalog([]sellsy.CustomField{
			{ID: 1, Name: "A", RelatedObjects: []string{"task"}},
		})

		records := NewRecordsClient(nil, catalog, nil)

		batches := records.embedBatches("task")
		require.Len(t, batches, 1)
		assert.Equal(t, []string{"cf.1"}, batches[0])
	})
}

func writePage(w nethttp.ResponseWriter, data []map[string]any, offset string, total int) {
	page := map[string]any{
		"data": data,
		"pagination": map[string]any{
			"limit":  100,
			"count":  len(data),
			"total":  total,
			"offset": offset,
		},
	}

	_ = json.NewEncoder(w).Encode(page)
}

func recordsPage(firstID, count int) []map[string]any {
	records := make([]map[string]any, count)
	for i := range records {
		records[i] = map[string]any{
			"id":      firstID + i,
			"created": "2024-01-01T00:00:00+01:00",
			"name":    fmt.Sprintf("record-%d", firstID+i),
		}
	}

	return records
}
