package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/sellsy-client/internal/constants"
	"github.com/fivetwenty-io/sellsy-client/internal/http"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// CustomFieldsClient implements sellsy.CustomFieldsClient.
type CustomFieldsClient struct {
	httpClient *http.Client
}

// NewCustomFieldsClient creates a new custom fields client.
func NewCustomFieldsClient(httpClient *http.Client) *CustomFieldsClient {
	return &CustomFieldsClient{
		httpClient: httpClient,
	}
}

// List implements sellsy.CustomFieldsClient.List.
func (c *CustomFieldsClient) List(ctx context.Context, params *sellsy.QueryParams) (*sellsy.CustomFieldList, error) {
	if params == nil {
		params = sweepParams()
	}

	resp, err := c.httpClient.Get(ctx, "/"+constants.CustomFieldsEndpoint, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing custom fields: %w", err)
	}

	var list sellsy.CustomFieldList

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing custom fields list: %w", err)
	}

	return &list, nil
}

// BuildCatalog implements sellsy.CustomFieldsClient.BuildCatalog: a full
// paginated sweep ascending by id. A page returning fewer records than the
// requested page size is the last one.
func (c *CustomFieldsClient) BuildCatalog(ctx context.Context) (*sellsy.CustomFieldCatalog, error) {
	var fields []sellsy.CustomField

	params := sweepParams()

	for {
		list, err := c.List(ctx, params)
		if err != nil {
			return nil, err
		}

		fields = append(fields, list.Data...)

		if len(list.Data) < params.Limit || list.Pagination.Offset == "" {
			break
		}

		params.Offset = list.Pagination.Offset
	}

	return sellsy.NewCustomFieldCatalog(fields), nil
}

func sweepParams() *sellsy.QueryParams {
	return sellsy.NewQueryParams().
		WithLimit(constants.DefaultPageSize).
		WithOrder(constants.DefaultOrder, constants.DefaultDirection)
}
