package sellsy

import "context"

// CustomFieldsClient provides access to custom-field definitions.
type CustomFieldsClient interface {
	// List fetches one page of custom-field definitions.
	List(ctx context.Context, params *QueryParams) (*CustomFieldList, error)

	// BuildCatalog performs a full paginated sweep of the definitions
	// endpoint and indexes every definition by entity type.
	BuildCatalog(ctx context.Context) (*CustomFieldCatalog, error)
}

// RecordsClient provides access to paginated resource collections.
type RecordsClient interface {
	// FetchPage fetches a single page of a collection.
	FetchPage(ctx context.Context, endpoint string, params *QueryParams) (*Page, error)

	// Fetch walks an entire collection, embedding and resolving the
	// custom fields relevant to entityType, and returns flattened rows.
	// resumeCursor resumes a previously truncated run; pass the empty
	// cursor to start from the beginning. On a page-fatal error the
	// partial result is returned together with the error, and its
	// ResumeCursor holds the last good offset.
	Fetch(ctx context.Context, endpoint, entityType string, resumeCursor Cursor) (*FetchResult, error)
}

// Client is the top-level API client.
type Client interface {
	CustomFields() CustomFieldsClient
	Records() RecordsClient

	// Catalog returns the custom-field catalog built at construction,
	// or nil when custom fields are disabled.
	Catalog() *CustomFieldCatalog

	// GetToken returns a currently valid access token.
	GetToken(ctx context.Context) (string, error)
}
