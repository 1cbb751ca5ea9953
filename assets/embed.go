// Package assets embeds files the binary needs at runtime.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var sqlFS embed.FS

// Migrations returns the SQL migrations rooted at their directory, so
// entries are named like "001_prefs.sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}
