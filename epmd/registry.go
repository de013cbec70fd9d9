package epmd

import (
	"encoding/json"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var registryBucket = []byte("epmd_registrations")

// FileRegistry persists the set of node registrations a local PMD
// stand-in has accepted, surviving process restarts. It is an optional
// companion to Client, not required for normal register/lookup use
// against a real PMD; it exists for embedders that run their own PMD
// stand-in and need its table to survive a restart.
type FileRegistry struct {
	db *bolt.DB
}

// OpenFileRegistry opens (creating if absent) a bbolt-backed
// registration table at path.
func OpenFileRegistry(path string) (*FileRegistry, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "epmd: open registry")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(registryBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "epmd: create bucket")
	}
	return &FileRegistry{db: db}, nil
}

// Close closes the underlying database file.
func (r *FileRegistry) Close() error {
	return r.db.Close()
}

// Put stores entry under its node name, overwriting any prior record.
func (r *FileRegistry) Put(entry NodeEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "epmd: marshal entry")
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(registryBucket).Put([]byte(entry.Name), data)
	})
}

// Get returns the stored entry for name, or nil if absent.
func (r *FileRegistry) Get(name string) (*NodeEntry, error) {
	var entry NodeEntry
	found := false
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(registryBucket).Get([]byte(name))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, errors.Wrap(err, "epmd: read entry")
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// Delete removes the stored entry for name, if any.
func (r *FileRegistry) Delete(name string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(registryBucket).Delete([]byte(name))
	})
}

// List returns every currently stored entry.
func (r *FileRegistry) List() ([]NodeEntry, error) {
	var entries []NodeEntry
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(registryBucket).ForEach(func(_, v []byte) error {
			var entry NodeEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "epmd: list entries")
	}
	return entries, nil
}
