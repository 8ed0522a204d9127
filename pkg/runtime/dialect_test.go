package runtime

import "testing"

func TestDialect(t *testing.T) {
	sqlite := DialectFor(DriverSQLite)
	pg := DialectFor(DriverPostgres)

	t.Run("placeholders", func(t *testing.T) {
		if got := sqlite.Placeholder(3); got != "?" {
			t.Errorf("sqlite placeholder = %q, want ?", got)
		}
		if got := pg.Placeholder(3); got != "$3" {
			t.Errorf("postgres placeholder = %q, want $3", got)
		}
	})

	t.Run("column types", func(t *testing.T) {
		tests := []struct {
			sqlType    string
			wantSQLite string
			wantPG     string
		}{
			{"integer", "INTEGER", "INTEGER"},
			{"bigint", "INTEGER", "BIGINT"},
			{"text", "TEXT", "TEXT"},
			{"varchar(255)", "TEXT", "VARCHAR(255)"},
			{"boolean", "BOOLEAN", "BOOLEAN"},
			{"double precision", "REAL", "DOUBLE PRECISION"},
			{"bytea", "BLOB", "BYTEA"},
		}
		for _, tt := range tests {
			if got := sqlite.ColumnType(tt.sqlType); got != tt.wantSQLite {
				t.Errorf("sqlite ColumnType(%q) = %q, want %q", tt.sqlType, got, tt.wantSQLite)
			}
			if got := pg.ColumnType(tt.sqlType); got != tt.wantPG {
				t.Errorf("postgres ColumnType(%q) = %q, want %q", tt.sqlType, got, tt.wantPG)
			}
		}
	})

	t.Run("auto increment", func(t *testing.T) {
		if got := sqlite.AutoIncrementPrimaryKey("id"); got != `id INTEGER PRIMARY KEY AUTOINCREMENT` {
			t.Errorf("unexpected sqlite key %q", got)
		}
		if got := pg.AutoIncrementPrimaryKey("id"); got != `id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY` {
			t.Errorf("unexpected postgres key %q", got)
		}
	})

	t.Run("booleans", func(t *testing.T) {
		if sqlite.BoolLiteral(false) != "0" || sqlite.BoolLiteral(true) != "1" {
			t.Error("sqlite booleans must render as 0/1")
		}
		if pg.BoolLiteral(false) != "FALSE" || pg.BoolLiteral(true) != "TRUE" {
			t.Error("postgres booleans must render as TRUE/FALSE")
		}
	})
}
