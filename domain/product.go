package domain

type Product struct {
	ID            int64   `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	Category      string  `db:"category" json:"category"`
	Price         float64 `db:"price" json:"price"`
	StockQuantity int64   `db:"stock_quantity" json:"stock_quantity"`
	MinStockLevel int64   `db:"min_stock_level" json:"min_stock_level"`
	MaxStockLevel int64   `db:"max_stock_level" json:"max_stock_level,omitempty"`
	Description   string  `db:"description" json:"description,omitempty"`
	CreatedAt     string  `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt     string  `db:"updated_at" json:"updated_at,omitempty"`
}

// LowStock reports whether the product is at or below its alert threshold.
func (p Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}
