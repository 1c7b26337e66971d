// Package bolt implements the durable credential store on top of bbolt.
//
// A store lives in a directory owned by this package. The on-disk layout is
// not stable and must not be relied on outside of it.
package bolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/nixcrypto/internal/store"
	"go.etcd.io/bbolt"
)

const (
	// DBFileName is the bbolt file created inside the store directory.
	DBFileName = "credentials.db"

	formatVersion = "1"

	defaultLockTimeout = time.Second
)

var (
	credentialsBucket = []byte("credentials")
	metaBucket        = []byte("meta")

	saltKey    = []byte("salt")
	versionKey = []byte("version")

	// ErrNoBucket is returned when the store file is missing its buckets.
	ErrNoBucket = errors.New("no bucket in bolt")
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store with a single bbolt file. bbolt permits one
// writer at a time and holds an exclusive file lock, so the existence check
// and insert in PutRaw are atomic across processes.
type Store struct {
	db     *bbolt.DB
	path   string
	salt   []byte
	logger zerolog.Logger
}

// Config configures a Store.
type Config struct {
	// Dir is the store directory. It is created if missing.
	Dir string

	Logger zerolog.Logger

	// LockTimeout bounds how long Open waits for another process to release
	// the store file. Defaults to one second.
	LockTimeout time.Duration
}

// Open opens or creates the store in cfg.Dir.
func Open(cfg Config) (*Store, error) {
	dir := cfg.Dir
	lockTimeout := cfg.LockTimeout
	if lockTimeout == 0 {
		lockTimeout = defaultLockTimeout
	}

	if dir == "" {
		return nil, fmt.Errorf("%w: store path must not be empty", store.ErrValidation)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %v", store.ErrStoreIO, err)
	}

	path := filepath.Join(dir, DBFileName)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", store.ErrStoreIO, path, err)
	}

	s := &Store{db: db, path: path, logger: cfg.Logger}

	created, err := s.init()
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Debug().
		Str("path", path).
		Bool("created", created).
		Msg("credential store opened")

	return s, nil
}

// init creates the buckets and the per-store salt on first use and loads
// the salt afterwards.
func (s *Store) init() (created bool, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(credentialsBucket); err != nil {
			return err
		}

		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}

		if salt := meta.Get(saltKey); salt != nil {
			s.salt = append([]byte(nil), salt...)
			return nil
		}

		created = true
		s.salt = []byte(uuid.New().String())
		if err := meta.Put(saltKey, s.salt); err != nil {
			return err
		}
		return meta.Put(versionKey, []byte(formatVersion))
	})
	if err != nil {
		return false, fmt.Errorf("%w: failed to initialize store: %v", store.ErrStoreIO, err)
	}

	return created, nil
}

// GetRaw returns the value stored under key.
func (s *Store) GetRaw(key []byte) ([]byte, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(credentialsBucket)
		if bucket == nil {
			return ErrNoBucket
		}

		if v := bucket.Get(key); v != nil {
			raw = append([]byte(nil), v...) // copy, v is only valid inside the tx
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to read record: %v", store.ErrStoreIO, err)
	}

	if raw == nil {
		return nil, false, nil
	}

	value, err := decodeRecord(raw)
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

// PutRaw inserts value under key. An existing key is never replaced.
func (s *Store) PutRaw(key, value []byte) error {
	record := encodeRecord(value)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(credentialsBucket)
		if bucket == nil {
			return ErrNoBucket
		}

		if bucket.Get(key) != nil {
			return store.ErrStoreInvariantViolation
		}

		return bucket.Put(key, record)
	})
	if errors.Is(err, store.ErrStoreInvariantViolation) {
		s.logger.Error().Str("path", s.path).Msg("attempt to replace an existing credential")
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: failed to write record: %v", store.ErrStoreIO, err)
	}

	return nil
}

// Salt returns the salt generated when the store was created.
func (s *Store) Salt() []byte {
	return append([]byte(nil), s.salt...)
}

// Path returns the location of the bbolt file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}
