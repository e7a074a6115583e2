package export

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// FileCursorStore encodes the resume cursor into the output file name.
// A truncated export of companies from the "companies" endpoint resumed
// at offset 2 is written as "companies-company-2.csv"; a completed export
// carries no offset segment. On startup the lexicographically latest
// matching file names the cursor to resume from.
type FileCursorStore struct {
	// Dir is the directory scanned for previous exports. Empty means the
	// current working directory.
	Dir string
}

// Filename returns the output path for an export batch. The cursor is
// empty for a completed export.
func (s *FileCursorStore) Filename(endpoint, entityType string, cursor sellsy.Cursor) string {
	name := endpoint + "-" + entityType
	if cursor != "" {
		name += "-" + string(cursor)
	}

	return s.join(name + ".csv")
}

// Latest scans the directory for previous exports of the endpoint and
// entity type and returns the cursor encoded in the lexicographically
// latest file name. It returns an empty cursor when no previous truncated
// export exists.
func (s *FileCursorStore) Latest(endpoint, entityType string) (sellsy.Cursor, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scanning export directory: %w", err)
	}

	prefix := endpoint + "-" + entityType + "-"

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".csv") {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return "", nil
	}

	sort.Strings(names)

	latest := names[len(names)-1]
	offset := strings.TrimSuffix(strings.TrimPrefix(latest, prefix), ".csv")

	return sellsy.Cursor(offset), nil
}

func (s *FileCursorStore) join(name string) string {
	if s.Dir == "" {
		return name
	}

	return strings.TrimSuffix(s.Dir, "/") + "/" + name
}
