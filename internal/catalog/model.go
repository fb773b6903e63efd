package catalog

type Product struct {
	ID         int64
	Title      string
	PricePaise int64
	Stock      int
	ImageURL   string
}
