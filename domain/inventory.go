package domain

// Inventory log actions written by this module. The column itself is free text.
const (
	ActionSale    = "sale"
	ActionRestock = "restock"
	ActionAdjust  = "adjust"
)

// InventoryLogEntry is one row of the append-only stock audit trail.
type InventoryLogEntry struct {
	ID             int64  `db:"id" json:"id"`
	ProductID      int64  `db:"product_id" json:"product_id"`
	Action         string `db:"action" json:"action"`
	QuantityChange int64  `db:"quantity_change" json:"quantity_change"`
	NewQuantity    int64  `db:"new_quantity" json:"new_quantity"`
	UserID         *int64 `db:"user_id" json:"user_id,omitempty"`
	Notes          string `db:"notes" json:"notes,omitempty"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}
