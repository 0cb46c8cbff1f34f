package application

import "shopsheet-sync/internal/domain"

// Plan turns a diff into the minimal ordered batch of spreadsheet
// operations: header formatting first (only on first sync), then one
// targeted update per changed row, then a single append covering every
// new row in catalog order. An empty diff on a non-first sync yields an
// empty plan.
func Plan(diff domain.DiffResult, firstSync bool) []domain.SheetOp {
	var ops []domain.SheetOp

	if firstSync {
		ops = append(ops, domain.SheetOp{
			Kind:   domain.OpFormatHeader,
			Values: [][]string{domain.SheetHeader},
		})
	}

	for _, change := range diff.Changed {
		ops = append(ops, domain.SheetOp{
			Kind:   domain.OpUpdateRow,
			Row:    change.RowIndex,
			Values: [][]string{productRow(change.Product)},
		})
	}

	if len(diff.New) > 0 {
		rows := make([][]string, 0, len(diff.New))
		for _, product := range diff.New {
			rows = append(rows, productRow(product))
		}
		ops = append(ops, domain.SheetOp{
			Kind:   domain.OpAppendRows,
			Values: rows,
		})
	}

	return ops
}

func productRow(p domain.Product) []string {
	return []string{p.ID, p.Title, p.Description, p.Price}
}
