package sellsy

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EmbedCustomFieldsKey is the flattened key under which the custom-field
// value list of a record surfaces ("_embed" object, "custom_fields" list).
const EmbedCustomFieldsKey = "_embed_custom_fields"

// fieldNameReplacer normalizes custom-field display names: accented
// characters are substituted and parentheses stripped, per a fixed table.
var fieldNameReplacer = strings.NewReplacer(
	"é", "e",
	"è", "e",
	"ë", "e",
	"ê", "e",
	"ô", "o",
	"(", "",
	")", "",
)

// sentinel labels that mean "no value" and normalize to nil.
var sentinelLabels = map[string]bool{
	"Inconnu": true,
	"N/C":     true,
	"Aucun":   true,
}

// NormalizeFieldName applies the custom-field display-name substitution
// table.
func NormalizeFieldName(name string) string {
	return fieldNameReplacer.Replace(name)
}

// Flatten converts one nested record into a flat column → scalar mapping.
// Nested objects collapse into underscore-joined key paths; list values
// pass through untouched except the custom-field embed, whose entries are
// resolved into one column each (the embed key itself is removed). Flatten
// is idempotent on already-flat input.
func Flatten(record RawRecord, catalog *CustomFieldCatalog) FlatRecord {
	flat := make(FlatRecord, len(record))
	flattenInto(flat, "", map[string]any(record))

	embed, ok := flat[EmbedCustomFieldsKey]
	if !ok {
		return flat
	}

	delete(flat, EmbedCustomFieldsKey)

	entries, ok := embed.([]any)
	if !ok {
		return flat
	}

	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		name, value := resolveCustomField(entry, catalog)
		if name == "" {
			continue
		}

		flat[name] = value
	}

	return flat
}

func flattenInto(flat FlatRecord, prefix string, obj map[string]any) {
	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "_" + key
		}

		if nested, ok := value.(map[string]any); ok {
			flattenInto(flat, path, nested)

			continue
		}

		flat[path] = value
	}
}

// resolveCustomField turns one embedded custom-field value entry into a
// (column, value) pair. The column name is the normalized display name;
// the value is nil for empty/zero raws, an "<amount> <currency>" string
// for currency objects, and otherwise the label of the matching value
// option (or the raw value itself when no option matches).
func resolveCustomField(entry map[string]any, catalog *CustomFieldCatalog) (string, any) {
	rawName, _ := entry["name"].(string)
	name := NormalizeFieldName(rawName)

	raw := entry["value"]
	if isEmptyValue(raw) {
		return name, nil
	}

	if obj, ok := raw.(map[string]any); ok {
		amount, hasAmount := obj["amount"]
		currency, hasCurrency := obj["currency"]

		if hasAmount && hasCurrency {
			if isEmptyValue(amount) {
				return name, nil
			}

			return name, scalarString(amount) + " " + scalarString(currency)
		}
	}

	resolved := lookupOptionLabel(entry, catalog, raw)
	if label, ok := resolved.(string); ok && sentinelLabels[label] {
		return name, nil
	}

	return name, resolved
}

// lookupOptionLabel matches the raw value against the entry's own value
// options, falling back to the catalog definition. Comparison is by
// canonical scalar string so numeric ids survive JSON number decoding.
func lookupOptionLabel(entry map[string]any, catalog *CustomFieldCatalog, raw any) any {
	want := scalarString(raw)

	if params, ok := entry["parameters"].(map[string]any); ok {
		if items, ok := params["items"].([]any); ok {
			for _, rawItem := range items {
				item, ok := rawItem.(map[string]any)
				if !ok {
					continue
				}

				if scalarString(item["id"]) == want {
					if label, ok := item["label"].(string); ok {
						return label
					}
				}
			}

			return raw
		}
	}

	if catalog != nil {
		if id, ok := fieldID(entry); ok {
			if field, found := catalog.Field(id); found {
				for _, option := range field.Parameters.Items {
					if option.ID.String() == want {
						return option.Label
					}
				}
			}
		}
	}

	return raw
}

func fieldID(entry map[string]any) (int, bool) {
	switch id := entry["id"].(type) {
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return 0, false
		}

		return int(n), true
	case float64:
		return int(id), true
	case int:
		return id, true
	default:
		return 0, false
	}
}

// isEmptyValue reports whether a raw custom-field value means "empty":
// nil, the empty string, or a zero in any of its JSON spellings.
func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "0"
	case json.Number:
		return v.String() == "0"
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	default:
		return false
	}
}

// scalarString renders a scalar as its canonical string form.
func scalarString(value any) string {
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
			return ""
		}

		return string(data)
	}
}

// PruneEmptyColumns drops every column that is absent or nil in all rows
// of the batch. This is a batch-level transformation: a column kept for
// one row is kept for all of them.
func PruneEmptyColumns(rows []FlatRecord) []FlatRecord {
	populated := make(map[string]bool)

	for _, row := range rows {
		for column, value := range row {
			if value != nil {
				populated[column] = true
			}
		}
	}

	for _, row := range rows {
		for column := range row {
			if !populated[column] {
				delete(row, column)
			}
		}
	}

	return rows
}
