package configsqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE IF NOT EXISTS items (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);`

func TestOpenDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "harvest.db")
	cfg := Struct{File: path}

	db, err := cfg.OpenDB(testSchema)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec("INSERT INTO items (name) VALUES (?)", "a")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening applies the schema again without complaint
	db, err = cfg.OpenDB(testSchema)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestOpenDBUnspecified(t *testing.T) {
	_, err := Struct{}.OpenDB(testSchema)
	require.Error(t, err)
}

func TestString(t *testing.T) {
	require.Equal(t, "libsql://db.example.com", Struct{File: "x.db", Url: "libsql://db.example.com"}.String())
	require.Equal(t, "x.db", Struct{File: "x.db"}.String())
}
