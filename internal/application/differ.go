package application

import "shopsheet-sync/internal/domain"

// Diff classifies every catalog product against the spreadsheet snapshot
// as new, changed, or unchanged. Classification is keyed by product ID,
// never by position, since catalog order and sheet row order diverge
// across runs. Snapshot rows whose product no longer exists in the
// catalog are not touched.
func Diff(products []domain.Product, snapshot domain.SheetSnapshot) domain.DiffResult {
	var result domain.DiffResult

	for _, product := range products {
		row, ok := snapshot[product.ID]
		if !ok {
			result.New = append(result.New, product)
			continue
		}
		if row.Matches(product) {
			result.Unchanged++
			continue
		}
		result.Changed = append(result.Changed, domain.RowChange{
			Product:  product,
			RowIndex: row.Index,
		})
	}

	return result
}
