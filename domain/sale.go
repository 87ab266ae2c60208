package domain

type Sale struct {
	ID            int64   `db:"id" json:"id"`
	TransactionID string  `db:"transaction_id" json:"transaction_id"`
	ProductID     int64   `db:"product_id" json:"product_id"`
	Quantity      int64   `db:"quantity" json:"quantity"`
	UnitPrice     float64 `db:"unit_price" json:"unit_price"`
	TotalPrice    float64 `db:"total_price" json:"total_price"`
	TaxAmount     float64 `db:"tax_amount" json:"tax_amount"`
	PaymentMethod string  `db:"payment_method" json:"payment_method"`
	CustomerInfo  string  `db:"customer_info" json:"customer_info,omitempty"`
	UserID        *int64  `db:"user_id" json:"user_id,omitempty"`
	SaleDate      string  `db:"sale_date" json:"sale_date,omitempty"`
}
