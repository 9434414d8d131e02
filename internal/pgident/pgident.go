// Package pgident validates and quotes Postgres identifiers before they are
// interpolated into schema-qualified SQL.
package pgident

import (
	"fmt"
	"strings"
)

// Quote validates and quotes a schema identifier. Tenant schema names are
// generated server-side, but they still pass through here before being
// interpolated into SQL.
func Quote(ident string) (string, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return "", fmt.Errorf("empty identifier")
	}
	for _, r := range ident {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return "", fmt.Errorf("invalid identifier %q", ident)
	}
	return `"` + ident + `"`, nil
}
