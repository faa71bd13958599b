package configsqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct configures the store a harvest writes to, either a local sqlite
// file (`file`) or a remote libsql database (`url`).
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) String() string {
	if config.Url != "" {
		return config.Url
	}
	return config.File
}

func (config Struct) dsn() string {
	// immediate transactions take the write lock on BEGIN
	return fmt.Sprintf(
		"%s?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		config.File,
	)
}

func (config Struct) openLibsql() (*sql.DB, error) {
	target, err := url.Parse(config.Url)
	if err != nil {
		return nil, err
	}
	if config.AuthToken != "" {
		values := target.Query()
		values.Set("authToken", config.AuthToken)
		target.RawQuery = values.Encode()
	}
	return sql.Open("libsql", target.String())
}

// OpenDB opens the configured database and applies `schema` to it.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch {
	case config.Url != "":
		db, err = config.openLibsql()
		if err != nil {
			return nil, err
		}
		// remote writes go through one stream so a harvest's transactions
		// never interleave with each other
		db.SetMaxOpenConns(1)
	case config.File != "":
		if config.File != ":memory:" && !strings.HasPrefix(config.File, "file:") {
			err = os.MkdirAll(filepath.Dir(config.File), 0777)
			if err != nil {
				return nil, err
			}
		}
		db, err = sql.Open("sqlite", config.dsn())
		if err != nil {
			return nil, err
		}
		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		if config.File != ":memory:" {
			_, err = db.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				db.Close()
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("a database file or url was not specified")
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}
