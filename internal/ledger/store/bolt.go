package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

// Bucket and key layout: one bucket, one key per collection plus the schema
// version. Mirrors the original three named entries of the ledger state.
var (
	bucketLedger = []byte("ledger")

	keyProducts  = []byte("products")
	keyPurchases = []byte("purchases")
	keySales     = []byte("sales")
	keyVersion   = []byte("schema_version")
)

// BoltStore implements LedgerStore on top of a local bbolt file. Writes are
// synchronous single transactions, the closest Go analog of the original's
// write-through local storage.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a LedgerStore backed by an open bbolt database.
func NewBoltStore(db *bolt.DB) *BoltStore {
	return &BoltStore{db: db}
}

// Load reads the persisted collections. A missing bucket or version key means
// nothing was ever saved and (nil, nil) is returned.
func (s *BoltStore) Load(_ context.Context) (*State, error) {
	var state *State
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedger)
		if b == nil {
			return nil
		}
		rawVersion := b.Get(keyVersion)
		if rawVersion == nil {
			return nil
		}
		version, err := strconv.Atoi(string(rawVersion))
		if err != nil {
			return fmt.Errorf("corrupt schema version %q: %w", rawVersion, err)
		}
		if err := checkVersion(version); err != nil {
			return err
		}

		loaded := &State{SchemaVersion: version}
		if err := getJSON(b, keyProducts, &loaded.Products); err != nil {
			return err
		}
		if err := getJSON(b, keyPurchases, &loaded.Purchases); err != nil {
			return err
		}
		if err := getJSON(b, keySales, &loaded.Sales); err != nil {
			return err
		}
		state = loaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	return state, nil
}

// Save writes all three collections and the schema version in one transaction.
func (s *BoltStore) Save(_ context.Context, state *State) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketLedger)
		if err != nil {
			return err
		}
		if err := putJSON(b, keyProducts, state.Products); err != nil {
			return err
		}
		if err := putJSON(b, keyPurchases, state.Purchases); err != nil {
			return err
		}
		if err := putJSON(b, keySales, state.Sales); err != nil {
			return err
		}
		return b.Put(keyVersion, []byte(strconv.Itoa(SchemaVersion)))
	})
	if err != nil {
		return fmt.Errorf("failed to save ledger state: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func getJSON(b *bolt.Bucket, key []byte, out any) error {
	raw := b.Get(key)
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("corrupt %s entry: %w", key, err)
	}
	return nil
}

func putJSON(b *bolt.Bucket, key []byte, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", key, err)
	}
	return b.Put(key, raw)
}
