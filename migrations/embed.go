// Package migrations embeds the SQL schema migrations so binaries can
// apply them without the source tree present.
package migrations

import "embed"

// FS holds the versioned goose migration files.
//
//go:embed *.sql
var FS embed.FS
