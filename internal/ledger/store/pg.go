package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	collectionProducts  = "products"
	collectionPurchases = "purchases"
	collectionSales     = "sales"
)

// PgStore implements LedgerStore on PostgreSQL, persisting the same three
// serialized collections as jsonb rows keyed by collection name.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a LedgerStore backed by a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// Migrate applies the embedded schema migrations against the database URL.
func Migrate(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Load reads the three collection rows. An empty table means nothing was
// ever saved and (nil, nil) is returned.
func (s *PgStore) Load(ctx context.Context) (*State, error) {
	rows, err := s.db.Query(ctx, `SELECT collection, schema_version, records FROM ledger_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	defer rows.Close()

	state := &State{}
	found := false
	for rows.Next() {
		var collection string
		var version int
		var records []byte
		if err := rows.Scan(&collection, &version, &records); err != nil {
			return nil, fmt.Errorf("failed to scan ledger state row: %w", err)
		}
		if err := checkVersion(version); err != nil {
			return nil, err
		}
		found = true
		state.SchemaVersion = version

		var dest any
		switch collection {
		case collectionProducts:
			dest = &state.Products
		case collectionPurchases:
			dest = &state.Purchases
		case collectionSales:
			dest = &state.Sales
		default:
			continue
		}
		if err := json.Unmarshal(records, dest); err != nil {
			return nil, fmt.Errorf("corrupt %s collection: %w", collection, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger state rows: %w", err)
	}
	if !found {
		return nil, nil
	}
	return state, nil
}

// Save upserts the three collection rows in one transaction.
func (s *PgStore) Save(ctx context.Context, state *State) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for collection, records := range map[string]any{
		collectionProducts:  state.Products,
		collectionPurchases: state.Purchases,
		collectionSales:     state.Sales,
	} {
		raw, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to encode %s collection: %w", collection, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO ledger_state (collection, schema_version, records)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (collection)
			 DO UPDATE SET schema_version = EXCLUDED.schema_version, records = EXCLUDED.records`,
			collection, SchemaVersion, raw)
		if err != nil {
			return fmt.Errorf("failed to save %s collection: %w", collection, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger state: %w", err)
	}
	return nil
}

func (s *PgStore) Close() error {
	s.db.Close()
	return nil
}
