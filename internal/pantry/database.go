package pantry

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	itemBucketName  = "pantry_items"
	wasteBucketName = "waste_records"
)

// DB defines the interface for pantry persistence operations
type DB interface {
	// SaveItem saves a pantry item
	SaveItem(item *Item) error

	// GetItem retrieves a pantry item by ID
	GetItem(id string) (*Item, error)

	// ListItems returns all of a user's pantry items
	ListItems(userID string) ([]*Item, error)

	// ListActiveItems returns a user's items with status active
	ListActiveItems(userID string) ([]*Item, error)

	// ExpireItem marks the item expired and inserts the waste record in one
	// atomic transaction. The record is skipped when one already exists for
	// the same (item, reason, waste date); the returned bool reports whether
	// a new record was written.
	ExpireItem(item *Item, record *WasteRecord) (bool, error)

	// HasWasteRecord reports whether a waste record exists for the
	// (item, reason, waste date) key
	HasWasteRecord(itemID, reason string, wasteDate time.Time) (bool, error)

	// ListWasteRecords returns all of a user's waste records
	ListWasteRecords(userID string) ([]*WasteRecord, error)

	// Close closes the database connection
	Close() error
}

// wasteKey is the ledger key; one key per (item, reason, calendar day)
// makes the duplicate check and the insert the same lookup.
func wasteKey(itemID, reason string, wasteDate time.Time) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s", itemID, reason, wasteDate.UTC().Format("2006-01-02")))
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(itemBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(wasteBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveItem saves a pantry item
func (b *BoltDB) SaveItem(item *Item) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling item: %w", err)
		}
		return bucket.Put([]byte(item.ID), data)
	})
}

// GetItem retrieves a pantry item by ID
func (b *BoltDB) GetItem(id string) (*Item, error) {
	var item *Item
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("pantry item not found: %s", id)
		}
		return json.Unmarshal(data, &item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns all of a user's pantry items
func (b *BoltDB) ListItems(userID string) ([]*Item, error) {
	return b.listItems(func(item *Item) bool {
		return item.UserID == userID
	})
}

// ListActiveItems returns a user's items with status active
func (b *BoltDB) ListActiveItems(userID string) ([]*Item, error) {
	return b.listItems(func(item *Item) bool {
		return item.UserID == userID && item.Status == StatusActive
	})
}

func (b *BoltDB) listItems(keep func(*Item) bool) ([]*Item, error) {
	items := make([]*Item, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshaling item: %w", err)
			}
			if keep(&item) {
				items = append(items, &item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ExpireItem transitions the item to expired and writes the waste record.
// Both writes happen in one bbolt transaction: either the item is expired
// with its ledger row present, or nothing changed.
func (b *BoltDB) ExpireItem(item *Item, record *WasteRecord) (bool, error) {
	item.Status = StatusExpired
	created := false
	err := b.db.Update(func(tx *bbolt.Tx) error {
		wastes := tx.Bucket([]byte(wasteBucketName))
		key := wasteKey(record.PantryItemID, record.Reason, record.WasteDate)
		if wastes.Get(key) == nil {
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("marshaling waste record: %w", err)
			}
			if err := wastes.Put(key, data); err != nil {
				return err
			}
			created = true
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling item: %w", err)
		}
		return tx.Bucket([]byte(itemBucketName)).Put([]byte(item.ID), data)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// HasWasteRecord reports whether a waste record exists for the key
func (b *BoltDB) HasWasteRecord(itemID, reason string, wasteDate time.Time) (bool, error) {
	exists := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(wasteBucketName))
		exists = bucket.Get(wasteKey(itemID, reason, wasteDate)) != nil
		return nil
	})
	return exists, err
}

// ListWasteRecords returns all of a user's waste records
func (b *BoltDB) ListWasteRecords(userID string) ([]*WasteRecord, error) {
	records := make([]*WasteRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(wasteBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record WasteRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling waste record: %w", err)
			}
			if record.UserID == userID {
				records = append(records, &record)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
