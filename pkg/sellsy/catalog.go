package sellsy

import "sort"

// CustomFieldCatalog indexes every custom-field definition by the entity
// types it attaches to. Built once per client lifetime and read-only
// afterward.
type CustomFieldCatalog struct {
	byEntityType map[string][]int
	byID         map[int]CustomField
	ordered      []int
}

// NewCustomFieldCatalog builds a catalog from a full definition sweep.
// Definition order is preserved.
func NewCustomFieldCatalog(fields []CustomField) *CustomFieldCatalog {
	catalog := &CustomFieldCatalog{
		byEntityType: make(map[string][]int),
		byID:         make(map[int]CustomField, len(fields)),
		ordered:      make([]int, 0, len(fields)),
	}

	for _, field := range fields {
		if _, exists := catalog.byID[field.ID]; exists {
			continue
		}

		catalog.byID[field.ID] = field
		catalog.ordered = append(catalog.ordered, field.ID)

		for _, entityType := range field.RelatedObjects {
			catalog.byEntityType[entityType] = append(catalog.byEntityType[entityType], field.ID)
		}
	}

	return catalog
}

// Field returns the definition for a field id.
func (c *CustomFieldCatalog) Field(id int) (CustomField, bool) {
	field, ok := c.byID[id]

	return field, ok
}

// FieldIDs returns the ordered union of the definition ids attached to the
// given entity types, without duplicates.
func (c *CustomFieldCatalog) FieldIDs(entityTypes ...string) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0)

	for _, entityType := range entityTypes {
		for _, id := range c.byEntityType[entityType] {
			if seen[id] {
				continue
			}

			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids
}

// AllFieldIDs returns every definition id in discovery order.
func (c *CustomFieldCatalog) AllFieldIDs() []int {
	ids := make([]int, len(c.ordered))
	copy(ids, c.ordered)

	return ids
}

// EntityTypes returns the sorted entity-type names present in the catalog.
func (c *CustomFieldCatalog) EntityTypes() []string {
	types := make([]string, 0, len(c.byEntityType))
	for entityType := range c.byEntityType {
		types = append(types, entityType)
	}

	sort.Strings(types)

	return types
}

// Len returns the number of definitions held.
func (c *CustomFieldCatalog) Len() int {
	return len(c.byID)
}
