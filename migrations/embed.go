// Package migrations embeds the SQL schema migrations for the iofs source
// driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
