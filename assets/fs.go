// Package appfs embeds the files the binaries need at runtime.
package appfs

import "embed"

// FS holds the SQL migrations and the page & email templates.
//go:embed migrations all:templates
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	PageTemplatesDir  = "templates/pages"
)
