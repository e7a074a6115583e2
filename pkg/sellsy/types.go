package sellsy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawRecord is one entity instance exactly as returned by the API. Nested
// objects and the custom-field embed are kept verbatim until flattening.
type RawRecord map[string]any

// FlatRecord maps a column name to a scalar value. A nil value means the
// column is present but empty for this record.
type FlatRecord map[string]any

// Cursor is the opaque pagination offset supplied by the server. An empty
// cursor means the collection is exhausted (or, on requests, that the
// server default start position should be used.)
type Cursor string

// UnmarshalJSON accepts both string and numeric offsets; some endpoints
// report numeric offsets while others use opaque tokens.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""

		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parsing offset cursor: %w", err)
		}

		*c = Cursor(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parsing offset cursor: %w", err)
	}

	*c = Cursor(n.String())

	return nil
}

// Pagination is the pagination block of a list response.
type Pagination struct {
	Limit  int    `json:"limit"`
	Count  int    `json:"count"`
	Total  int    `json:"total"`
	Offset Cursor `json:"offset"`
}

// Page is one page of a paginated resource collection.
type Page struct {
	Data       []RawRecord `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// DecodePage parses a list response body. Numbers are decoded as
// json.Number so custom-field option ids survive without float rounding.
func DecodePage(body []byte) (*Page, error) {
	var page Page

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing list response: %w", err)
	}

	return &page, nil
}

// FieldOption is one selectable option of a list-typed custom field.
type FieldOption struct {
	ID    json.Number `json:"id"`
	Label string      `json:"label"`
}

// FieldParameters holds the option list of a custom-field definition or of
// a custom-field value entry embedded on a record.
type FieldParameters struct {
	Items []FieldOption `json:"items"`
}

// CustomField is one tenant-defined custom-field definition. Immutable
// once fetched.
type CustomField struct {
	ID             int             `json:"id"`
	Type           string          `json:"type,omitempty"`
	Name           string          `json:"name"`
	Code           string          `json:"code,omitempty"`
	RelatedObjects []string        `json:"related_objects"`
	Parameters     FieldParameters `json:"parameters"`
}

// CustomFieldList is a page of custom-field definitions.
type CustomFieldList struct {
	Data       []CustomField `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// FetchResult is the externally visible output of a full resource fetch.
// ResumeCursor is empty on normal exhaustion; after a truncated run it
// holds the last known offset so a later run can pick up from there.
type FetchResult struct {
	Rows         []FlatRecord
	ResumeCursor Cursor
}
