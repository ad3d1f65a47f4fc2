// Package migrations holds the versioned SQL schema, embedded into the
// binaries so the server and the migrate CLI never depend on a working
// directory.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file of this directory.
//
//go:embed *.sql
var FS embed.FS
