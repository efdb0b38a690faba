// Package db embeds the checkout schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the orders, transactions, and addresses tables.
//
//go:embed migrations/001_schema.sql
var Schema string
