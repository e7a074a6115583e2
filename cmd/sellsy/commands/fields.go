package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// NewFieldsCommand creates the fields command
func NewFieldsCommand() *cobra.Command {
	var entityType string

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List custom-field definitions",
		Long:  "Discover the custom-field catalog of the account and list its definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context(), false)
			if err != nil {
				return err
			}

			catalog, err := client.CustomFields().BuildCatalog(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to build custom-field catalog: %w", err)
			}

			ids := catalog.AllFieldIDs()
			if entityType != "" {
				ids = catalog.FieldIDs(entityType)
			}

			fields := make([]sellsy.CustomField, 0, len(ids))
			for _, id := range ids {
				if field, ok := catalog.Field(id); ok {
					fields = append(fields, field)
				}
			}

			rendered, err := renderStructured(fields)
			if err != nil {
				return err
			}

			if rendered {
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("ID", "Code", "Name", "Type", "Related Objects")

			for _, field := range fields {
				_ = table.Append(
					strconv.Itoa(field.ID),
					field.Code,
					field.Name,
					field.Type,
					joinSorted(field.RelatedObjects),
				)
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			fmt.Printf("\nTotal: %d fields\n", len(fields))

			return nil
		},
	}

	cmd.Flags().StringVarP(&entityType, "type", "t", "", "only fields related to this entity type")

	return cmd
}
