// Package db embeds the database schema.
package db

import _ "embed"

// Schema contains the DDL for the subscriber, fulfillment, and rate-history
// tables. It is idempotent and safe to run on every start.
//
//go:embed migrations/001_schema.sql
var Schema string
