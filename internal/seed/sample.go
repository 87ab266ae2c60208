package seed

import (
	"github.com/rs/zerolog/log"

	"salesystem/m/domain"
	"salesystem/m/internal/database"
)

// SampleData returns the demo catalog and staff list. It never touches the
// database and returns fresh slices on every call.
func SampleData() ([]domain.Product, []domain.User) {
	products := []domain.Product{
		{ID: 1, Name: "Bottled Water", Category: "Beverages", Price: 50.0, StockQuantity: 150, MinStockLevel: 20},
		{ID: 2, Name: "Soda", Category: "Beverages", Price: 80.0, StockQuantity: 75, MinStockLevel: 30},
		{ID: 3, Name: "Coffee", Category: "Beverages", Price: 150.0, StockQuantity: 15, MinStockLevel: 25},
		{ID: 4, Name: "Tea", Category: "Beverages", Price: 120.0, StockQuantity: 8, MinStockLevel: 15},
		{ID: 5, Name: "Sandwich", Category: "Food", Price: 300.0, StockQuantity: 45, MinStockLevel: 20},
		{ID: 6, Name: "Burger", Category: "Food", Price: 450.0, StockQuantity: 25, MinStockLevel: 15},
		{ID: 7, Name: "Pizza", Category: "Food", Price: 800.0, StockQuantity: 12, MinStockLevel: 10},
		{ID: 8, Name: "Chicken Wings", Category: "Food", Price: 650.0, StockQuantity: 18, MinStockLevel: 15},
		{ID: 9, Name: "Ice Cream", Category: "Dessert", Price: 200.0, StockQuantity: 35, MinStockLevel: 20},
		{ID: 10, Name: "Cake Slice", Category: "Dessert", Price: 250.0, StockQuantity: 22, MinStockLevel: 10},
	}

	users := []domain.User{
		{ID: 1, Username: "admin", Role: domain.RoleAdmin, Email: "admin@system.com"},
		{ID: 2, Username: "manager1", Role: domain.RoleManager, Email: "manager@system.com"},
		{ID: 3, Username: "clerk1", Role: domain.RoleClerk, Email: "clerk@system.com"},
	}

	return products, users
}

// LoadSampleProducts inserts the sample catalog into the products table,
// skipping ids that already exist. It returns the number of rows inserted, or
// 0 if the insert or the follow-up id sequence realignment failed.
func LoadSampleProducts(store *database.Store) int {
	products, _ := SampleData()
	return loadProducts(store, products, store.Dialect().ResyncSequence("products"))
}

func loadProducts(store *database.Store, products []domain.Product, resync string) int {
	stmts := make([]database.Statement, 0, len(products))
	for _, p := range products {
		stmts = append(stmts, database.Stmt(`INSERT INTO products (id, name, category, price, stock_quantity, min_stock_level)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Category, p.Price, p.StockQuantity, p.MinStockLevel))
	}

	res := store.ExecBatch(stmts...)
	if !res.OK() {
		log.Error().Err(res.Err).Msg("unable to load sample products")
		return 0
	}

	// Explicit ids leave a serial sequence behind; new products would collide.
	if resync != "" {
		if r := store.Query(resync); !r.OK() {
			log.Error().Err(r.Err).Int64("rows", res.RowsAffected).Msg("sample products loaded but id sequence not realigned")
			return 0
		}
	}

	log.Info().Int64("rows", res.RowsAffected).Msg("seeded sample products")
	return int(res.RowsAffected)
}
