package postgres

import (
	"context"

	"github.com/xenking/econstore/internal/dbtx"
)

const (
	upsertUserSQL = `INSERT INTO users (full_name, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING id`

	upsertCategorySQL = `INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
)

// UpsertUser inserts a user or updates the name of the one with the same
// email, returning its ID.
func UpsertUser(ctx context.Context, q dbtx.Querier, fullName, email string) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, upsertUserSQL, fullName, email).Scan(&id); err != nil {
		return 0, dbtx.Persistence("upsert user "+email, err)
	}
	return id, nil
}

// UpsertCategory returns the ID of the category with the given name,
// creating it when missing.
func UpsertCategory(ctx context.Context, q dbtx.Querier, name string) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, upsertCategorySQL, name).Scan(&id); err != nil {
		return 0, dbtx.Persistence("upsert category "+name, err)
	}
	return id, nil
}
