package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/mac"
	"go.etcd.io/bbolt"
)

var (
	hwLeaseBucketKey = []byte("hw-leases")
	shortToHwBucket  = []byte("short-to-hw")
)

// SchemaVersion is the current version of the bolt db
const SchemaVersion = "1"

type (
	// Storage is a storage.LeaseStorage implementation that persists
	// short address leases in a bbolt database
	Storage struct {
		db   *bbolt.DB
		path string
	}

	entry struct {
		Short   uint16 `json:"short"`
		Granted int64  `json:"granted"`
	}
)

func shortKey(s mac.ShortAddr) []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(s))
}

func (e entry) lease(hw mac.HardwareAddr) lease.Lease {
	return lease.Lease{
		HwAddr:    hw,
		Short:     mac.ShortAddr(e.Short),
		GrantedAt: time.Unix(e.Granted, 0),
	}
}

func put(hwBucket, shortBucket *bbolt.Bucket, l lease.Lease) error {
	if err := assertUniqueHwAddr(hwBucket, l.HwAddr); err != nil {
		return err
	}
	if err := assertUniqueShort(shortBucket, l.Short); err != nil {
		return err
	}

	blob, err := json.Marshal(entry{
		Short:   uint16(l.Short),
		Granted: l.GrantedAt.Unix(),
	})
	if err != nil {
		return err
	}

	if err := shortBucket.Put(shortKey(l.Short), l.HwAddr[:]); err != nil {
		return err
	}
	return hwBucket.Put(l.HwAddr[:], blob)
}

// Create implements storage.LeaseStorage
func (s *Storage) Create(ctx context.Context, l lease.Lease) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		hwBucket, shortBucket, err := openOrCreateBuckets(tx)
		if err != nil {
			return err
		}

		return put(hwBucket, shortBucket, l)
	})
}

// Update implements storage.LeaseStorage
func (s *Storage) Update(ctx context.Context, l lease.Lease) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		hwBucket, _, err := openOrCreateBuckets(tx)
		if err != nil {
			return err
		}

		e, err := get(hwBucket, l.HwAddr)
		if err != nil {
			return err
		}

		if e.Short != uint16(l.Short) {
			return storage.ErrShortMismatch
		}

		e.Granted = l.GrantedAt.Unix()
		blob, err := json.Marshal(e)
		if err != nil {
			return err
		}

		return hwBucket.Put(l.HwAddr[:], blob)
	})
}

// Delete implements storage.LeaseStorage
func (s *Storage) Delete(ctx context.Context, hw mac.HardwareAddr) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		hwBucket, shortBucket, err := openOrCreateBuckets(tx)
		if err != nil {
			return err
		}

		e, err := get(hwBucket, hw)
		if err != nil {
			return err
		}

		if err := hwBucket.Delete(hw[:]); err != nil {
			return err
		}

		return shortBucket.Delete(shortKey(mac.ShortAddr(e.Short)))
	})
}

// FindByHwAddr implements storage.LeaseStorage
func (s *Storage) FindByHwAddr(ctx context.Context, hw mac.HardwareAddr) (lease.Lease, error) {
	var e entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		hwBucket := tx.Bucket(hwLeaseBucketKey)
		if hwBucket == nil {
			// not found because the bucket hasn't even been created yet
			return &storage.ErrNotFound{Key: mac.LongAddress(hw)}
		}

		var err error
		e, err = get(hwBucket, hw)
		return err
	})
	if err != nil {
		return lease.Lease{}, err
	}

	return e.lease(hw), nil
}

// FindByShort implements storage.LeaseStorage
func (s *Storage) FindByShort(ctx context.Context, short mac.ShortAddr) (lease.Lease, error) {
	var (
		e  entry
		hw mac.HardwareAddr
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		hwBucket := tx.Bucket(hwLeaseBucketKey)
		shortBucket := tx.Bucket(shortToHwBucket)
		if hwBucket == nil || shortBucket == nil {
			return &storage.ErrNotFound{Key: mac.ShortAddress(short)}
		}

		value := shortBucket.Get(shortKey(short))
		if value == nil {
			return &storage.ErrNotFound{Key: mac.ShortAddress(short)}
		}
		if len(value) != len(hw) {
			return fmt.Errorf("database inconsistency detected. invalid hardware address stored for %s", short)
		}
		copy(hw[:], value)

		var err error
		e, err = get(hwBucket, hw)
		if storage.IsNotFound(err) {
			return fmt.Errorf("database inconsistency detected. lease entry does not exist for %s (short:%s)", hw, short)
		}
		return err
	})
	if err != nil {
		return lease.Lease{}, err
	}

	return e.lease(hw), nil
}

// List returns all leases and implements storage.LeaseStorage
func (s *Storage) List(ctx context.Context) ([]lease.Lease, error) {
	var leases []lease.Lease
	return leases, s.db.View(func(tx *bbolt.Tx) error {
		hwBucket := tx.Bucket(hwLeaseBucketKey)
		shortBucket := tx.Bucket(shortToHwBucket)
		if hwBucket == nil || shortBucket == nil {
			return nil
		}

		// short addresses are stored big endian so the cursor
		// yields them in order
		cursor := shortBucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			var hw mac.HardwareAddr
			copy(hw[:], value)

			e, err := get(hwBucket, hw)
			if err != nil {
				return err
			}

			leases = append(leases, e.lease(hw))
		}

		return nil
	})
}

// Replace implements storage.LeaseStorage. The replacement happens in a
// single transaction
func (s *Storage) Replace(ctx context.Context, leases iter.Seq[lease.Lease]) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, key := range [][]byte{hwLeaseBucketKey, shortToHwBucket} {
			if tx.Bucket(key) == nil {
				continue
			}
			if err := tx.DeleteBucket(key); err != nil {
				return err
			}
		}

		hwBucket, shortBucket, err := openOrCreateBuckets(tx)
		if err != nil {
			return err
		}

		for l := range leases {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := put(hwBucket, shortBucket, l); err != nil {
				return err
			}
		}

		return nil
	})
}

// Close implements storage.LeaseStorage
func (s *Storage) Close() error {
	return s.db.Close()
}

func get(bucket *bbolt.Bucket, hw mac.HardwareAddr) (entry, error) {
	var e entry

	blob := bucket.Get(hw[:])
	if blob == nil {
		return e, &storage.ErrNotFound{Key: mac.LongAddress(hw)}
	}

	return e, json.Unmarshal(blob, &e)
}

func openOrCreateBuckets(tx *bbolt.Tx) (hwBucket *bbolt.Bucket, shortBucket *bbolt.Bucket, err error) {
	hwBucket, err = tx.CreateBucketIfNotExists(hwLeaseBucketKey)
	if err != nil {
		return
	}

	shortBucket, err = tx.CreateBucketIfNotExists(shortToHwBucket)
	if err != nil {
		return
	}

	return hwBucket, shortBucket, nil
}

func assertUniqueHwAddr(bucket *bbolt.Bucket, hw mac.HardwareAddr) error {
	blob := bucket.Get(hw[:])
	if blob == nil {
		return nil
	}

	var e entry
	if err := json.Unmarshal(blob, &e); err != nil {
		return err
	}

	return &storage.ErrDuplicateHwAddr{
		HwAddr: hw,
		Short:  mac.ShortAddr(e.Short),
	}
}

func assertUniqueShort(bucket *bbolt.Bucket, short mac.ShortAddr) error {
	existing := bucket.Get(shortKey(short))
	if existing == nil {
		return nil
	}

	e := &storage.ErrDuplicateShort{Short: short}
	copy(e.HwAddr[:], existing)

	return e
}

// compile time check
var _ storage.LeaseStorage = &Storage{}
