// Package export writes flattened records to CSV and persists resumable
// pagination cursors between runs.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// DefaultDateColumns are the columns normalized to ISO-8601 UTC before
// serialization.
var DefaultDateColumns = []string{"created", "updated", "due_date", "owner_since"}

// dateLayouts are tried in order when normalizing a date-like value.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Options configures a CSV export.
type Options struct {
	// DateColumns overrides DefaultDateColumns.
	DateColumns []string
}

// Columns returns the column set of a batch in deterministic order: "id"
// first when present, the rest sorted.
func Columns(rows []sellsy.FlatRecord) []string {
	seen := make(map[string]bool)

	var columns []string

	for _, row := range rows {
		for column := range row {
			if !seen[column] {
				seen[column] = true
				columns = append(columns, column)
			}
		}
	}

	sort.Strings(columns)

	for i, column := range columns {
		if column == "id" {
			copy(columns[1:i+1], columns[:i])
			columns[0] = "id"

			break
		}
	}

	return columns
}

// WriteCSV writes one row per record. Columns absent in every row of the
// batch are omitted; date-like columns are normalized to ISO-8601 UTC
// best-effort (a value that does not parse is written unchanged).
func WriteCSV(path string, rows []sellsy.FlatRecord, opts *Options) error {
	dateColumns := DefaultDateColumns
	if opts != nil && opts.DateColumns != nil {
		dateColumns = opts.DateColumns
	}

	dated := make(map[string]bool, len(dateColumns))
	for _, column := range dateColumns {
		dated[column] = true
	}

	sellsy.PruneEmptyColumns(rows)
	columns := Columns(rows)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(columns))

	for _, row := range rows {
		for i, column := range columns {
			cell := cellString(row[column])
			if cell != "" && dated[column] {
				if normalized, ok := NormalizeTimestamp(cell); ok {
					cell = normalized
				}
			}

			record[i] = cell
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	return nil
}

// NormalizeTimestamp parses a date-like string and reformats it as an
// ISO-8601 UTC timestamp. The second return is false when no known layout
// matches.
func NormalizeTimestamp(value string) (string, bool) {
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC().Format(time.RFC3339), true
		}
	}

	return value, false
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	}
}
