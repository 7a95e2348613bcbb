// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema creates users, categories, products, orders and order_items.
//
//go:embed migrations/001_schema.sql
var Schema string
