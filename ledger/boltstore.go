package ledger

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/vestryorg/libvestry-go/registry"
	"github.com/vestryorg/libvestry-go/schedule"
)

var (
	bucketState = []byte("state")

	keyRegistry = []byte("registry")
	keySchedule = []byte("schedule")
	keyNonces   = []byte("nonces")
	keyFlags    = []byte("flags")
)

// stateFlags is the persisted form of the boolean ledger flags.
type stateFlags struct {
	Ready  bool
	Paused bool
}

// BoltStore persists the ledger in a bbolt database. Every Save runs in a
// single write transaction, so the on-disk state is always one consistent
// snapshot. A lock file beside the database rejects a second process
// immediately instead of blocking on bbolt's own file lock.
type BoltStore struct {
	db   *bbolt.DB
	lock *os.File
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath. The parent
// directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	lock, err := tryLock(dbPath + ".lock")
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		releaseLock(lock)
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		_ = db.Close()
		releaseLock(lock)
		return nil, fmt.Errorf("ledger: create bucket: %w", err)
	}

	return &BoltStore{db: db, lock: lock}, nil
}

// Close closes the underlying database and releases the lock file.
func (s *BoltStore) Close() error {
	err := s.db.Close()
	releaseLock(s.lock)
	return err
}

// Save persists the full ledger state in one write transaction.
func (s *BoltStore) Save(st *State) error {
	reg, err := encodeGob(st.Registry)
	if err != nil {
		return fmt.Errorf("ledger: encode registry: %w", err)
	}
	nonces, err := encodeGob(st.Nonces)
	if err != nil {
		return fmt.Errorf("ledger: encode nonces: %w", err)
	}
	flags, err := encodeGob(stateFlags{Ready: st.Ready, Paused: st.Paused})
	if err != nil {
		return fmt.Errorf("ledger: encode flags: %w", err)
	}
	var sched []byte
	if st.Schedule != nil {
		if sched, err = encodeGob(st.Schedule); err != nil {
			return fmt.Errorf("ledger: encode schedule: %w", err)
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketState)
		if err := b.Put(keyRegistry, reg); err != nil {
			return fmt.Errorf("ledger: put registry: %w", err)
		}
		if err := b.Put(keyNonces, nonces); err != nil {
			return fmt.Errorf("ledger: put nonces: %w", err)
		}
		if err := b.Put(keyFlags, flags); err != nil {
			return fmt.Errorf("ledger: put flags: %w", err)
		}
		if sched != nil {
			if err := b.Put(keySchedule, sched); err != nil {
				return fmt.Errorf("ledger: put schedule: %w", err)
			}
		} else if err := b.Delete(keySchedule); err != nil {
			return fmt.Errorf("ledger: delete schedule: %w", err)
		}
		return nil
	})
}

// Load reconstructs the persisted state, or returns nil if nothing was
// saved yet.
func (s *BoltStore) Load() (*State, error) {
	var st *State
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketState)
		reg := b.Get(keyRegistry)
		if reg == nil {
			return nil // never saved
		}

		st = newState()
		if err := decodeGob(reg, &st.Registry); err != nil {
			return fmt.Errorf("ledger: decode registry: %w", err)
		}
		if data := b.Get(keyNonces); data != nil {
			if err := decodeGob(data, &st.Nonces); err != nil {
				return fmt.Errorf("ledger: decode nonces: %w", err)
			}
		}
		if data := b.Get(keyFlags); data != nil {
			var flags stateFlags
			if err := decodeGob(data, &flags); err != nil {
				return fmt.Errorf("ledger: decode flags: %w", err)
			}
			st.Ready, st.Paused = flags.Ready, flags.Paused
		}
		if data := b.Get(keySchedule); data != nil {
			st.Schedule = &schedule.State{}
			if err := decodeGob(data, st.Schedule); err != nil {
				return fmt.Errorf("ledger: decode schedule: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if st != nil && st.Registry == nil {
		st.Registry = registry.New()
	}
	return st, nil
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
