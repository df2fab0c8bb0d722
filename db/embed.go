// Package db provides the embedded database schema and default catalog.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog contains the default storefront catalog used by seed-db.
//
//go:embed seed/catalog.json
var Catalog []byte
