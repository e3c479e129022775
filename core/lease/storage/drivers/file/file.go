package file

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/lease/storage/drivers/memory"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/ppacher/webthings-mqtt-gateway/pkg/mutex"
)

// Storage is a storage.LeaseStorage that keeps all leases in a plain
// text file. The file is rewritten atomically after each modification
type Storage struct {
	l    *mutex.Mutex // context.Context aware mutex that serializes file writes
	mem  *memory.Storage
	path string
}

// Open opens the lease file at path. A missing file is treated as an
// empty one and created on the first write
func Open(path string) (*Storage, error) {
	s := &Storage{
		l:    mutex.New(),
		mem:  memory.New(),
		path: path,
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	leases, err := Parse(path, f)
	if err != nil {
		return nil, err
	}

	if err := s.mem.Replace(context.Background(), slices.Values(leases)); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the path of the lease file
func (s *Storage) Path() string {
	return s.path
}

// Create implements storage.LeaseStorage
func (s *Storage) Create(ctx context.Context, l lease.Lease) error {
	return s.modify(ctx, func() error {
		return s.mem.Create(ctx, l)
	})
}

// Update implements storage.LeaseStorage
func (s *Storage) Update(ctx context.Context, l lease.Lease) error {
	return s.modify(ctx, func() error {
		return s.mem.Update(ctx, l)
	})
}

// Delete implements storage.LeaseStorage
func (s *Storage) Delete(ctx context.Context, hw mac.HardwareAddr) error {
	return s.modify(ctx, func() error {
		return s.mem.Delete(ctx, hw)
	})
}

// FindByHwAddr implements storage.LeaseStorage
func (s *Storage) FindByHwAddr(ctx context.Context, hw mac.HardwareAddr) (lease.Lease, error) {
	return s.mem.FindByHwAddr(ctx, hw)
}

// FindByShort implements storage.LeaseStorage
func (s *Storage) FindByShort(ctx context.Context, short mac.ShortAddr) (lease.Lease, error) {
	return s.mem.FindByShort(ctx, short)
}

// List implements storage.LeaseStorage
func (s *Storage) List(ctx context.Context) ([]lease.Lease, error) {
	return s.mem.List(ctx)
}

// Replace implements storage.LeaseStorage. The file is only replaced if
// all leases are valid
func (s *Storage) Replace(ctx context.Context, leases iter.Seq[lease.Lease]) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	all := slices.Collect(leases)

	// validate the unique index before touching the file
	next := memory.New()
	if err := next.Replace(ctx, slices.Values(all)); err != nil {
		return err
	}

	sorted, err := next.List(ctx)
	if err != nil {
		return err
	}

	if err := s.write(sorted); err != nil {
		return err
	}

	return s.mem.Replace(ctx, slices.Values(sorted))
}

// Close implements storage.LeaseStorage
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) modify(ctx context.Context, fn func() error) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	if err := fn(); err != nil {
		return err
	}

	leases, err := s.mem.List(ctx)
	if err != nil {
		return err
	}

	return s.write(leases)
}

// write replaces the lease file using a temporary file in the same
// directory and a rename
func (s *Storage) write(leases []lease.Lease) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, leases); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// compile time check
var _ storage.LeaseStorage = &Storage{}
