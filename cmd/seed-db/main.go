// Command seed-db applies the schema and loads users, categories and products
// from a JSON catalog, optionally gzip-compressed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/econstore/internal/app"
	"github.com/xenking/econstore/internal/dbtx"
	"github.com/xenking/econstore/internal/domain/product"
	"github.com/xenking/econstore/internal/storage/postgres"
)

type catalogJSON struct {
	Users []struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	} `json:"users"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Products []struct {
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		Stock       *int             `json:"stock"`
		Category    string           `json:"category"`
		ImageURL    string           `json:"imageUrl"`
	} `json:"products"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to the catalog JSON file (.json or .json.gz)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	app.LoadDotenv(lg)

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, catalogFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile string) error {
	catalog, err := readCatalog(catalogFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: databaseURL, MaxConns: 2})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	provider, err := postgres.NewProvider(pool, postgres.ProviderConfig{})
	if err != nil {
		return err
	}
	conn, err := provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	if err := seed(ctx, lg, tx, catalog); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			lg.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return dbtx.Persistence("commit seed", tx.Commit(ctx))
}

func readCatalog(path string) (*catalogJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip catalog")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	var c catalogJSON
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(err, "parse catalog")
	}
	return &c, nil
}

func seed(ctx context.Context, lg *zap.Logger, q dbtx.Querier, c *catalogJSON) error {
	for _, u := range c.Users {
		id, err := postgres.UpsertUser(ctx, q, u.FullName, u.Email)
		if err != nil {
			return err
		}
		lg.Info("Upserted user", zap.Int64("id", id), zap.String("email", u.Email))
	}

	categories := make(map[string]int64, len(c.Categories))
	for _, cat := range c.Categories {
		id, err := postgres.UpsertCategory(ctx, q, cat.Name)
		if err != nil {
			return err
		}
		categories[cat.Name] = id
	}

	products := postgres.NewProductRepository()
	for _, p := range c.Products {
		draft := product.Draft{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
		}
		if p.Category != "" {
			id, ok := categories[p.Category]
			if !ok {
				return errors.Errorf("product %q references unknown category %q", p.Name, p.Category)
			}
			draft.CategoryID = &id
		}
		np, err := draft.Validate()
		if err != nil {
			return errors.Wrapf(err, "product %q", p.Name)
		}

		created, err := products.Create(ctx, q, np)
		if err != nil {
			return err
		}
		lg.Info("Created product", zap.Int64("id", created.ID), zap.String("name", created.Name))
	}
	return nil
}
