package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SetupDB opens a private in-memory database with `schema` applied, it is
// closed when the test ends.
func SetupDB(t testing.TB, schema string) *sql.DB {
	t.Helper()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is its own database
	sqlite.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlite.Close()
	})

	_, err = sqlite.Exec("pragma foreign_keys = on")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(schema)
	if err != nil {
		t.Fatal(err)
	}
	return sqlite
}
