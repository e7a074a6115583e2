package sellsy

import (
	"net/url"
	"strconv"
)

// QueryParams holds the list options understood by collection endpoints.
type QueryParams struct {
	Limit     int
	Order     string
	Direction string
	Offset    Cursor
	// Embed holds raw embed keys, e.g. "cf.142". Each entry becomes one
	// repeated "embed[]" query parameter.
	Embed []string
}

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() *QueryParams {
	return &QueryParams{}
}

// WithLimit sets the page size.
func (q *QueryParams) WithLimit(limit int) *QueryParams {
	q.Limit = limit

	return q
}

// WithOrder sets the sort key and direction.
func (q *QueryParams) WithOrder(order, direction string) *QueryParams {
	q.Order = order
	q.Direction = direction

	return q
}

// WithOffset sets the pagination offset cursor.
func (q *QueryParams) WithOffset(offset Cursor) *QueryParams {
	q.Offset = offset

	return q
}

// WithEmbed appends embed keys.
func (q *QueryParams) WithEmbed(keys ...string) *QueryParams {
	q.Embed = append(q.Embed, keys...)

	return q
}

// ToValues converts the parameters to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	if q.Order != "" {
		values.Set("order", q.Order)
	}

	if q.Direction != "" {
		values.Set("direction", q.Direction)
	}

	if q.Offset != "" {
		values.Set("offset", string(q.Offset))
	}

	for _, key := range q.Embed {
		values.Add("embed[]", key)
	}

	return values
}
