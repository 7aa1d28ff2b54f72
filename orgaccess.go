// Package orgaccess carries the assets compiled into the service binaries.
package orgaccess

import "embed"

// EmailFS holds the email templates, one directory per template with an
// html.tmpl and a plaintext.tmpl.
//
//go:embed templates/emails
var EmailFS embed.FS

// MigrationsFS holds the ordered SQL migrations applied by the migrator.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
