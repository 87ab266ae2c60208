package migrations

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"salesystem/m/domain"
	"salesystem/m/internal/database"
)

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@system.com"
	DefaultBusinessName  = "Lukenya Getaway Resort"
)

// Schema returns the CREATE TABLE statements for the given dialect, followed
// by the triggers that maintain updated_at columns.
func Schema(d database.Dialect) []string {
	pk := d.PrimaryKey
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
            id %s,
            username VARCHAR(50) NOT NULL UNIQUE,
            password VARCHAR(255) NOT NULL,
            role VARCHAR(10) DEFAULT 'clerk' CHECK (role IN ('admin', 'manager', 'clerk')),
            email VARCHAR(100),
            is_active BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
            id %s,
            name VARCHAR(100) NOT NULL,
            category VARCHAR(50),
            price DECIMAL(10, 2) NOT NULL,
            stock_quantity INTEGER DEFAULT 0,
            min_stock_level INTEGER DEFAULT 10,
            max_stock_level INTEGER DEFAULT 100,
            description TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sales (
            id %s,
            transaction_id VARCHAR(20) UNIQUE,
            product_id INTEGER,
            quantity INTEGER,
            unit_price DECIMAL(10, 2),
            total_price DECIMAL(10, 2),
            tax_amount DECIMAL(10, 2),
            payment_method VARCHAR(20),
            customer_info TEXT,
            user_id INTEGER,
            sale_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (product_id) REFERENCES products(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS inventory_log (
            id %s,
            product_id INTEGER,
            action VARCHAR(20),
            quantity_change INTEGER,
            new_quantity INTEGER,
            user_id INTEGER,
            notes TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (product_id) REFERENCES products(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS settings (
            id %s,
            business_name VARCHAR(100),
            tax_rate DECIMAL(5, 2) DEFAULT 16.0,
            currency VARCHAR(10) DEFAULT 'KES',
            low_stock_alert BOOLEAN DEFAULT TRUE,
            receipt_template TEXT,
            email_notifications BOOLEAN DEFAULT FALSE,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`, pk),
	}

	for _, table := range []string{"products", "settings"} {
		schema = append(schema, d.TouchUpdatedAt(table)...)
	}
	return schema
}

// Run creates the schema and the default admin user and settings row. It is
// safe to call repeatedly. Failures are logged and reported as false.
func Run(store *database.Store) bool {
	ok := true
	for _, stmt := range Schema(store.Dialect()) {
		if !store.Exec(stmt).OK() {
			ok = false
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("unable to hash default admin password")
		return false
	}

	seeds := []database.Statement{
		database.Stmt(`INSERT INTO users (username, password, role, email)
            VALUES (?, ?, ?, ?)
            ON CONFLICT (username) DO NOTHING`,
			DefaultAdminUsername, string(hashed), domain.RoleAdmin, DefaultAdminEmail),
		// settings has no natural key; it is a single-row table by convention.
		database.Stmt(`INSERT INTO settings (business_name)
            SELECT CAST(? AS VARCHAR(100))
            WHERE NOT EXISTS (SELECT 1 FROM settings)`,
			DefaultBusinessName),
	}
	for _, seed := range seeds {
		if !store.Exec(seed.Query, seed.Args...).OK() {
			ok = false
		}
	}

	if ok {
		log.Info().Msg("database schema ready")
	}
	return ok
}
