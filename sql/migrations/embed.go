// Package migrations embeds the forward-only SQL migration set so
// internal/migrate can apply it without a filesystem path at runtime.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
