package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"salesystem/m/internal/config"
)

// Dialect captures the few places where the schema differs between engines.
type Dialect struct {
	Name       string
	DriverName string
	// PrimaryKey is the column definition for an auto-incrementing id.
	PrimaryKey string
	touchDDL   func(table string) []string
	resyncSQL  func(table string) string
}

// TouchUpdatedAt returns the statements that keep table.updated_at current
// on every UPDATE.
func (d Dialect) TouchUpdatedAt(table string) []string {
	if d.touchDDL == nil {
		return nil
	}
	return d.touchDDL(table)
}

// ResyncSequence returns a read statement that realigns the id generator of
// table after rows were inserted with explicit ids, or "" if not needed.
func (d Dialect) ResyncSequence(table string) string {
	if d.resyncSQL == nil {
		return ""
	}
	return d.resyncSQL(table)
}

var dialects = map[string]Dialect{
	config.DriverSQLite: {
		Name:       config.DriverSQLite,
		DriverName: "sqlite",
		PrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
		touchDDL: func(table string) []string {
			return []string{fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_touch_updated_at
            AFTER UPDATE ON %[1]s FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
            BEGIN
                UPDATE %[1]s SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
            END`, table)}
		},
	},
	config.DriverPostgres: {
		Name:       config.DriverPostgres,
		DriverName: "pgx",
		PrimaryKey: "SERIAL PRIMARY KEY",
		touchDDL: func(table string) []string {
			return []string{
				`CREATE OR REPLACE FUNCTION touch_updated_at() RETURNS TRIGGER AS $$
                BEGIN
                    NEW.updated_at = CURRENT_TIMESTAMP;
                    RETURN NEW;
                END;
                $$ LANGUAGE plpgsql`,
				fmt.Sprintf(`CREATE OR REPLACE TRIGGER %[1]s_touch_updated_at
                BEFORE UPDATE ON %[1]s FOR EACH ROW EXECUTE FUNCTION touch_updated_at()`, table),
			}
		},
		resyncSQL: func(table string) string {
			return fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 1)) FROM %[1]s`, table)
		},
	},
}

// LookupDialect returns the dialect registered for a config driver name.
func LookupDialect(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}
