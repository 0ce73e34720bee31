// Package data defines the persistence capability the client core consumes.
//
// The durable store is an external collaborator. The core talks to it through
// table-scoped queries with relational joins and aggregate counts; it never
// owns a wire format. Implementations map their native failure modes onto the
// domain error codes (unique violation, validation, not found).
package data

import "context"

// Row is a single record keyed by column name. Joined rows are embedded as
// nested Rows; aggregate counts are embedded as count descriptors whose exact
// shape is backend-defined and normalized by the caller.
type Row map[string]any

// Op is a filter operator.
type Op string

// Filter operators.
const (
	OpEq Op = "eq"
	OpIn Op = "in"
)

// Filter restricts a query to rows matching a column predicate.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In builds a set-membership filter.
func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Order sorts results by a column.
type Order struct {
	Column     string
	Descending bool
}

// Join embeds a related row from another table under the As key.
// base.LocalColumn = joined.ForeignColumn.
type Join struct {
	Table         string
	LocalColumn   string
	ForeignColumn string
	As            string
}

// Count requests an aggregate count of child rows grouped per base row,
// embedded under the As key as a backend-shaped count descriptor.
// child.ForeignColumn references the base table's id.
type Count struct {
	Table         string
	ForeignColumn string
	As            string
}

// Query describes a table-scoped select.
type Query struct {
	Table   string
	Filters []Filter
	Joins   []Join
	Counts  []Count
	Order   []Order
}

// Service is the data capability consumed by the client core.
type Service interface {
	// Select returns the rows matching the query, with joins and count
	// descriptors embedded.
	Select(ctx context.Context, q Query) ([]Row, error)

	// CountRows returns the number of rows matching the filters.
	CountRows(ctx context.Context, table string, filters ...Filter) (int, error)

	// Insert adds a record. Returns a unique-violation domain error when the
	// record collides with an existing key.
	Insert(ctx context.Context, table string, record Row) error

	// Update patches the rows matching the filters.
	Update(ctx context.Context, table string, patch Row, filters ...Filter) error

	// Delete removes the rows matching the filters. Deleting zero rows is
	// not an error.
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// Table names owned by the AnonVerse schema.
const (
	TableProfiles  = "profiles"
	TablePoems     = "poems"
	TableLikes     = "likes"
	TableComments  = "comments"
	TableFollowers = "followers"
	TableAccounts  = "accounts"
)
