// Package migrations carries the SQL schema files compiled into the
// binary, so the server does not depend on a migrations directory being
// present in the working directory.
package migrations

import "embed"

// Files holds every migration. store.ApplyMigrations runs the .up.sql
// files in lexical order; the .down.sql counterparts exist for manual
// rollback.
//
//go:embed *.sql
var Files embed.FS
