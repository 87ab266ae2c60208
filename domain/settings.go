package domain

type Settings struct {
	ID                 int64   `db:"id" json:"id"`
	BusinessName       string  `db:"business_name" json:"business_name"`
	TaxRate            float64 `db:"tax_rate" json:"tax_rate"`
	Currency           string  `db:"currency" json:"currency"`
	LowStockAlert      bool    `db:"low_stock_alert" json:"low_stock_alert"`
	ReceiptTemplate    string  `db:"receipt_template" json:"receipt_template,omitempty"`
	EmailNotifications bool    `db:"email_notifications" json:"email_notifications"`
	UpdatedAt          string  `db:"updated_at" json:"updated_at"`
}
