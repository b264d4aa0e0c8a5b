// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL for the intake tables and the reference discount
// function. Every statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
