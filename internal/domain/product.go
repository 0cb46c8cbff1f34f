package domain

// Product is a snapshot of one catalog item at extraction time.
// Price is the first variant's price, "0.00" when the product has no
// variants. Products are never persisted; the spreadsheet row is the
// durable representation.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// CatalogPage is one page of a cursor-paginated catalog listing.
type CatalogPage struct {
	Items       []Product
	HasNextPage bool
	EndCursor   string
}

// SheetRow is one data row of the spreadsheet, addressed by its absolute
// 1-based row index (the header occupies row 1).
type SheetRow struct {
	Index       int
	ID          string
	Title       string
	Description string
	Price       string
}

// SheetSnapshot is the spreadsheet's data region keyed by product ID.
// An empty snapshot means first sync.
type SheetSnapshot map[string]SheetRow

// Matches reports whether the row's fields equal the product's, compared
// as strings. The ID is the map key and is not re-compared.
func (r SheetRow) Matches(p Product) bool {
	return r.Title == p.Title && r.Description == p.Description && r.Price == p.Price
}
