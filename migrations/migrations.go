// Package migrations embeds schedkit's Postgres migrations. They are
// applied per tenant schema; see the migrate package.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS
