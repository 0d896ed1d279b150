// Command seed-db loads the default catalog into the database and optionally
// creates an admin account. Safe to run repeatedly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-api/db"
	"github.com/xenking/storefront-api/internal/repository"
)

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
}

const upsertProductSQL = `INSERT INTO products (id, name, description, price, category, image, stock, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	price = EXCLUDED.price,
	category = EXCLUDED.category,
	image = EXCLUDED.image,
	stock = EXCLUDED.stock,
	featured = EXCLUDED.featured,
	updated_at = now()`

const upsertAdminSQL = `INSERT INTO users (id, name, email, password_hash, role)
VALUES ($1, $2, $3, $4, 'admin')
ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = 'admin'`

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: embedded catalog)")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or STORE_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or STORE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("STORE_SEED_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STORE_SEED_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	data := db.SeedProducts
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))
		var err error
		if data, err = os.ReadFile(productsFile); err != nil {
			return errors.Wrap(err, "read products file")
		}
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range products {
		g.Go(func() error {
			// Deterministic ID from the product name keeps reruns idempotent.
			id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.Name)).String()
			if _, err := pool.Exec(ctx, upsertProductSQL,
				id, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock, p.Featured,
			); err != nil {
				return errors.Wrapf(err, "upsert product %q", p.Name)
			}
			slog.Info("upserted product", slog.String("id", id), slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	slog.Info("seeding admin account", slog.String("email", email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	_, err = pool.Exec(ctx, upsertAdminSQL,
		uuid.New().String(), "Administrator", strings.ToLower(email), string(hash),
	)
	return errors.Wrap(err, "upsert admin")
}
