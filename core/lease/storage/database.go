package storage

import (
	"context"
	"errors"
	"iter"

	"github.com/apex/log"
	"github.com/nextdhcp/nextpan/core/lease"
	panlog "github.com/nextdhcp/nextpan/core/log"
)

// Database connects a lease.Store with a LeaseStorage. It restores
// persisted leases at startup and writes snapshots back
type Database struct {
	store LeaseStorage
	l     panlog.Logger
}

// NewDatabase creates a new database that uses store for persistence
func NewDatabase(store LeaseStorage) *Database {
	return &Database{
		store: store,
		l:     log.Log,
	}
}

// WithLogger sets the logger used to report skipped records
func (db *Database) WithLogger(l panlog.Logger) *Database {
	db.l = l
	return db
}

// Storage returns the underlying lease storage
func (db *Database) Storage() LeaseStorage {
	return db.store
}

// Load restores all persisted leases into s and returns the number of
// leases restored. If the stored leases conflict with each other or with
// leases already held by s every conflicting record is skipped
func (db *Database) Load(ctx context.Context, s *lease.Store) (int, error) {
	leases, err := db.store.List(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.Restore(ctx, leases); err == nil {
		return len(leases), nil
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}

	count := 0
	for _, l := range leases {
		if err := s.Restore(ctx, []lease.Lease{l}); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return count, err
			}

			db.l.Errorf("An error occured while restoring lease %s: %s", l, err.Error())
			continue
		}
		count++
	}

	return count, nil
}

// Dump writes a snapshot of s to the storage, replacing whatever has been
// stored before. It returns the number of leases written
func (db *Database) Dump(ctx context.Context, s *lease.Store) (int, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	counted := func(yield func(lease.Lease) bool) {
		count = 0
		for l := range snapshot {
			count++
			if !yield(l) {
				return
			}
		}
	}

	if err := db.store.Replace(ctx, iter.Seq[lease.Lease](counted)); err != nil {
		return 0, err
	}

	return count, nil
}

// Granted persists a single grant or re-association
func (db *Database) Granted(ctx context.Context, l lease.Lease) error {
	existing, err := db.store.FindByHwAddr(ctx, l.HwAddr)
	if err != nil && !IsNotFound(err) {
		return err
	}

	if err == nil {
		if existing.Short == l.Short {
			return db.store.Update(ctx, l)
		}

		// the device got a new short address, the old record is stale
		if err := db.store.Delete(ctx, existing.HwAddr); err != nil {
			return err
		}
	}

	// a stale record of a different device may still hold the short address
	other, err := db.store.FindByShort(ctx, l.Short)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if err == nil {
		panlog.With(ctx, db.l).Warnf("overwritting stale lease %s", other)
		if err := db.store.Delete(ctx, other.HwAddr); err != nil {
			return err
		}
	}

	return db.store.Create(ctx, l)
}

// Released removes a single lease from the storage
func (db *Database) Released(ctx context.Context, l lease.Lease) error {
	err := db.store.Delete(ctx, l.HwAddr)
	if IsNotFound(err) {
		return nil
	}

	return err
}

// Close closes the underlying storage
func (db *Database) Close() error {
	return db.store.Close()
}
