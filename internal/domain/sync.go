package domain

// SheetHeader is the header row written on first sync, one label per
// synced column.
var SheetHeader = []string{"ID", "Title", "Description", "Price"}

// RowChange pairs a changed product with the sheet row it overwrites.
type RowChange struct {
	Product  Product
	RowIndex int
}

// DiffResult is the three-way classification of one sync run.
// Snapshot rows whose product no longer exists in the catalog are left
// alone: the engine is additive and update-only.
type DiffResult struct {
	New       []Product
	Changed   []RowChange
	Unchanged int
}

// Empty reports whether the diff requires no spreadsheet writes.
func (d DiffResult) Empty() bool {
	return len(d.New) == 0 && len(d.Changed) == 0
}

// SheetOpKind discriminates planned spreadsheet operations.
type SheetOpKind int

const (
	// OpFormatHeader writes and formats the header row. Emitted once,
	// only on first sync, always first in the plan.
	OpFormatHeader SheetOpKind = iota
	// OpUpdateRow rewrites all columns of one existing row in place.
	OpUpdateRow
	// OpAppendRows appends rows after the last existing row. A plan
	// carries at most one append op regardless of new-item count.
	OpAppendRows
)

// SheetOp is one planned spreadsheet operation. Row is set for
// OpUpdateRow; Values holds the header labels for OpFormatHeader, the
// single replacement row for OpUpdateRow, and all appended rows for
// OpAppendRows.
type SheetOp struct {
	Kind   SheetOpKind
	Row    int
	Values [][]string
}

// SyncSummary is the outcome of one sync run.
type SyncSummary struct {
	Added          int    `json:"added"`
	Updated        int    `json:"updated"`
	Unchanged      int    `json:"unchanged"`
	SpreadsheetURL string `json:"spreadsheet_url"`
}
