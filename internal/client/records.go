package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/sellsy-client/internal/constants"
	"github.com/fivetwenty-io/sellsy-client/internal/http"
	"github.com/fivetwenty-io/sellsy-client/pkg/metrics"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// relatedEntityTypes maps an entity type to the entity-type names whose
// custom-field definitions also attach to its records. Definitions are
// classified by their related_objects, and some objects inherit fields
// declared on broader types (a company carries "third"-level fields, an
// invoice carries "document"-level fields).
var relatedEntityTypes = map[string][]string{
	"company":     {"company", "third", "client", "prospect"},
	"individual":  {"individual", "third", "client", "prospect"},
	"contact":     {"contact", "people"},
	"opportunity": {"opportunity"},
	"invoice":     {"invoice", "document"},
	"estimate":    {"estimate", "document"},
	"credit-note": {"credit-note", "document"},
}

// RecordsClient implements sellsy.RecordsClient.
type RecordsClient struct {
	httpClient *http.Client
	catalog    *sellsy.CustomFieldCatalog
	logger     sellsy.Logger
}

// NewRecordsClient creates a new records client. A nil catalog disables
// custom-field embedding and resolution entirely.
func NewRecordsClient(httpClient *http.Client, catalog *sellsy.CustomFieldCatalog, logger sellsy.Logger) *RecordsClient {
	return &RecordsClient{
		httpClient: httpClient,
		catalog:    catalog,
		logger:     logger,
	}
}

// FetchPage implements sellsy.RecordsClient.FetchPage.
func (c *RecordsClient) FetchPage(ctx context.Context, endpoint string, params *sellsy.QueryParams) (*sellsy.Page, error) {
	var query url.Values
	if params != nil {
		query = params.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, "/"+endpoint, query)
	if err != nil {
		return nil, fmt.Errorf("fetching page of %s: %w", endpoint, err)
	}

	page, err := sellsy.DecodePage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page of %s: %w", endpoint, err)
	}

	return page, nil
}

// Fetch implements sellsy.RecordsClient.Fetch. It walks the collection
// page by page, strictly sequentially; each page is fetched, backfilled
// and merged before the next is issued. On a page-fatal error (the HTTP
// client has already exhausted its attempts) the rows accumulated so far
// are returned together with the last known offset and the error.
func (c *RecordsClient) Fetch(ctx context.Context, endpoint, entityType string, resumeCursor sellsy.Cursor) (*sellsy.FetchResult, error) {
	batches := c.embedBatches(entityType)
	offset := resumeCursor
	result := &sellsy.FetchResult{}

	for {
		page, err := c.fetchMergedPage(ctx, endpoint, offset, batches)
		if err != nil {
			result.ResumeCursor = offset

			return result, fmt.Errorf("fetch of %s truncated: %w", endpoint, err)
		}

		for _, record := range page.Data {
			result.Rows = append(result.Rows, sellsy.Flatten(record, c.catalog))
		}

		sellsy.PruneEmptyColumns(result.Rows)

		metrics.PagesFetchedTotal.WithLabelValues(endpoint).Inc()
		metrics.RecordsFetchedTotal.WithLabelValues(endpoint).Add(float64(len(page.Data)))

		if c.logger != nil {
			c.logger.Info("Fetch progress", map[string]interface{}{
				"endpoint": endpoint,
				"fetched":  len(result.Rows),
				"total":    page.Pagination.Total,
			})
		}

		if page.Pagination.Offset == "" {
			break
		}

		if page.Pagination.Total > 0 && len(result.Rows) >= page.Pagination.Total {
			break
		}

		offset = page.Pagination.Offset
	}

	result.ResumeCursor = ""

	return result, nil
}

// fetchMergedPage fetches one primary page plus one backfill request per
// remaining embed batch, and merges the backfill custom-field values onto
// the primary records.
func (c *RecordsClient) fetchMergedPage(ctx context.Context, endpoint string, offset sellsy.Cursor, batches [][]string) (*sellsy.Page, error) {
	var first []string
	if len(batches) > 0 {
		first = batches[0]
	}

	page, err := c.FetchPage(ctx, endpoint, pageParams(offset, first))
	if err != nil {
		return nil, err
	}

	for _, batch := range batches[min(len(batches), 1):] {
		backfill, err := c.FetchPage(ctx, endpoint, pageParams(offset, batch))
		if err != nil {
			return nil, err
		}

		c.mergeBackfill(endpoint, page, backfill)
	}

	return page, nil
}

// mergeKey is the composite key records are matched on across batched
// requests. Response ordering is not guaranteed to align between the
// primary page and its backfill batches, so matching is always by
// (id, created) and never positional.
type mergeKey struct {
	id      string
	created string
}

func recordKey(record sellsy.RawRecord) (mergeKey, bool) {
	id, ok := record["id"]
	if !ok {
		return mergeKey{}, false
	}

	created := record["created"]

	return mergeKey{id: scalar(id), created: scalar(created)}, true
}

// mergeBackfill appends each backfill record's custom-field values onto
// the matching primary record. Unmatched backfill records are surfaced
// (log + metric) and skipped; one orphan must not kill the page.
func (c *RecordsClient) mergeBackfill(endpoint string, page, backfill *sellsy.Page) {
	index := make(map[mergeKey]sellsy.RawRecord, len(page.Data))

	for _, record := range page.Data {
		if key, ok := recordKey(record); ok {
			index[key] = record
		}
	}

	for _, record := range backfill.Data {
		key, ok := recordKey(record)
		if !ok {
			continue
		}

		primary, found := index[key]
		if !found {
			metrics.MergeMismatchesTotal.WithLabelValues(endpoint).Inc()

			if c.logger != nil {
				mismatch := &sellsy.MergeMismatchError{
					Endpoint: endpoint,
					ID:       json.Number(key.id),
					Created:  key.created,
				}
				c.logger.Warn("Backfill merge mismatch", map[string]interface{}{
					"endpoint": endpoint,
					"error":    mismatch.Error(),
				})
			}

			continue
		}

		appendCustomFieldValues(primary, customFieldValues(record))
	}
}

// customFieldValues extracts the embedded custom-field value list of a
// record, nil when absent.
func customFieldValues(record sellsy.RawRecord) []any {
	embed, ok := record["_embed"].(map[string]any)
	if !ok {
		return nil
	}

	values, _ := embed["custom_fields"].([]any)

	return values
}

func appendCustomFieldValues(record sellsy.RawRecord, values []any) {
	if len(values) == 0 {
		return
	}

	embed, ok := record["_embed"].(map[string]any)
	if !ok {
		embed = make(map[string]any)
		record["_embed"] = embed
	}

	existing, _ := embed["custom_fields"].([]any)
	embed["custom_fields"] = append(existing, values...)
}

// embedBatches computes the embed keys relevant to an entity type,
// chunked to the upstream per-request cap. Nil when custom fields are
// disabled.
func (c *RecordsClient) embedBatches(entityType string) [][]string {
	if c.catalog == nil {
		return nil
	}

	types, ok := relatedEntityTypes[entityType]
	if !ok {
		types = []string{entityType}
	}

	ids := c.catalog.FieldIDs(types...)
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = constants.EmbedFieldPrefix + strconv.Itoa(id)
	}

	var batches [][]string
	for start := 0; start < len(keys); start += constants.EmbedBatchSize {
		end := min(start+constants.EmbedBatchSize, len(keys))
		batches = append(batches, keys[start:end])
	}

	return batches
}

func pageParams(offset sellsy.Cursor, embed []string) *sellsy.QueryParams {
	params := sellsy.NewQueryParams().
		WithLimit(constants.DefaultPageSize).
		WithOrder(constants.DefaultOrder, constants.DefaultDirection).
		WithOffset(offset)

	if len(embed) > 0 {
		params.WithEmbed(embed...)
	}

	return params
}

// scalar renders a record field as a comparable string. Both sides of a
// merge are decoded the same way, so the representation is consistent.
func scalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
