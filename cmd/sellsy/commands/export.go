package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sellsy-client/pkg/export"
	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// entityTypeForEndpoint maps collection endpoints to the entity type used
// for custom-field classification.
var entityTypeForEndpoint = map[string]string{
	"companies":     "company",
	"individuals":   "individual",
	"contacts":      "contact",
	"opportunities": "opportunity",
	"invoices":      "invoice",
	"estimates":     "estimate",
	"credit-notes":  "credit-note",
}

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	var (
		entityType     string
		dir            string
		resume         bool
		cursor         string
		cursorDB       string
		noCustomFields bool
	)

	cmd := &cobra.Command{
		Use:   "export ENDPOINT",
		Short: "Export a collection to CSV",
		Long: `Export every record of a collection endpoint to a CSV file.

Custom-field values relevant to the entity type are embedded, resolved to
their human-readable labels and flattened into columns. An interrupted
export writes the rows fetched so far and records the offset to resume
from; run the same export with --resume to pick it up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := strings.Trim(args[0], "/")
			if endpoint == "" {
				return ErrEndpointRequired
			}

			if entityType == "" {
				entityType = defaultEntityType(endpoint)
			}

			client, err := CreateClient(cmd.Context(), !noCustomFields)
			if err != nil {
				return err
			}

			fileStore := &export.FileCursorStore{Dir: dir}

			var sqliteStore *export.SQLiteCursorStore
			if cursorDB != "" {
				sqliteStore, err = export.OpenSQLiteCursorStore(cursorDB)
				if err != nil {
					return err
				}
				defer func() { _ = sqliteStore.Close() }()
			}

			start := sellsy.Cursor(cursor)
			if start == "" && resume {
				start, err = loadCursor(fileStore, sqliteStore, endpoint, entityType)
				if err != nil {
					return err
				}
			}

			result, fetchErr := client.Records().Fetch(cmd.Context(), endpoint, entityType, start)
			if result == nil {
				return fetchErr
			}

			path := outputPath(fileStore, sqliteStore != nil, endpoint, entityType, start, result.ResumeCursor)

			if sqliteStore != nil {
				if err := sqliteStore.Save(endpoint, entityType, result.ResumeCursor); err != nil {
					return err
				}
			}

			if err := export.WriteCSV(path, result.Rows, nil); err != nil {
				return err
			}

			if err := printSummary(endpoint, entityType, path, result); err != nil {
				return err
			}

			if fetchErr != nil {
				return fmt.Errorf("export incomplete: %w", fetchErr)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&entityType, "type", "t", "", "entity type for custom-field classification (default derived from the endpoint)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory for output files (default current directory)")
	cmd.Flags().BoolVar(&resume, "resume", false, "resume the previous truncated export")
	cmd.Flags().StringVar(&cursor, "cursor", "", "explicit offset cursor to start from")
	cmd.Flags().StringVar(&cursorDB, "cursor-db", "", "SQLite database for cursor state instead of file-name encoding")
	cmd.Flags().BoolVar(&noCustomFields, "no-custom-fields", false, "skip custom-field discovery and embedding")

	return cmd
}

func defaultEntityType(endpoint string) string {
	if entityType, ok := entityTypeForEndpoint[endpoint]; ok {
		return entityType
	}

	return strings.TrimSuffix(endpoint, "s")
}

// outputPath names the CSV of one export run. In file-store mode the
// resume cursor is encoded in the name, per the file store's convention.
// In cursor-database mode the name carries the run's start offset instead:
// each resumed run gets its own file, so writing rows 100+ can never
// truncate the file holding rows 0-99 of the previous run.
func outputPath(fileStore *export.FileCursorStore, useCursorDB bool, endpoint, entityType string, start, resume sellsy.Cursor) string {
	if useCursorDB {
		return fileStore.Filename(endpoint, entityType, start)
	}

	return fileStore.Filename(endpoint, entityType, resume)
}

func loadCursor(fileStore *export.FileCursorStore, sqliteStore *export.SQLiteCursorStore, endpoint, entityType string) (sellsy.Cursor, error) {
	if sqliteStore != nil {
		return sqliteStore.Load(endpoint, entityType)
	}

	return fileStore.Latest(endpoint, entityType)
}

func printSummary(endpoint, entityType, path string, result *sellsy.FetchResult) error {
	columns := 0
	if len(result.Rows) > 0 {
		columns = len(export.Columns(result.Rows))
	}

	type ExportSummary struct {
		Endpoint     string `json:"endpoint"      yaml:"endpoint"`
		EntityType   string `json:"entity_type"   yaml:"entity_type"`
		Rows         int    `json:"rows"          yaml:"rows"`
		Columns      int    `json:"columns"       yaml:"columns"`
		Output       string `json:"output"        yaml:"output"`
		ResumeCursor string `json:"resume_cursor" yaml:"resume_cursor"`
	}

	summary := ExportSummary{
		Endpoint:     endpoint,
		EntityType:   entityType,
		Rows:         len(result.Rows),
		Columns:      columns,
		Output:       path,
		ResumeCursor: string(result.ResumeCursor),
	}

	rendered, err := renderStructured(summary)
	if err != nil {
		return err
	}

	if rendered {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Endpoint", endpoint)
	_ = table.Append("Entity type", entityType)
	_ = table.Append("Rows", strconv.Itoa(summary.Rows))
	_ = table.Append("Columns", strconv.Itoa(columns))
	_ = table.Append("Output", path)

	if result.ResumeCursor != "" {
		_ = table.Append("Resume cursor", string(result.ResumeCursor))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
