package memory

import (
	"context"
	"iter"
	"sort"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/ppacher/webthings-mqtt-gateway/pkg/mutex"
)

// Storage implements the storage.LeaseStorage interface but
// does not provide any persistence at all as every lease
// is only kept in memory
type Storage struct {
	l       *mutex.Mutex // context.Context aware mutex to protect all fields below
	byHw    map[mac.HardwareAddr]lease.Lease
	byShort map[mac.ShortAddr]mac.HardwareAddr
}

// New returns a new memory storage
func New() *Storage {
	return makeStorage()
}

func makeStorage() *Storage {
	return &Storage{
		l:       mutex.New(),
		byHw:    make(map[mac.HardwareAddr]lease.Lease),
		byShort: make(map[mac.ShortAddr]mac.HardwareAddr),
	}
}

// Create implements storage.LeaseStorage
func (s *Storage) Create(ctx context.Context, l lease.Lease) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	return s.create(l)
}

func (s *Storage) create(l lease.Lease) error {
	if existing, ok := s.byHw[l.HwAddr]; ok {
		return &storage.ErrDuplicateHwAddr{
			HwAddr: l.HwAddr,
			Short:  existing.Short,
		}
	}

	if hw, ok := s.byShort[l.Short]; ok {
		return &storage.ErrDuplicateShort{
			Short:  l.Short,
			HwAddr: hw,
		}
	}

	s.byHw[l.HwAddr] = l
	s.byShort[l.Short] = l.HwAddr

	return nil
}

// Update implements storage.LeaseStorage
func (s *Storage) Update(ctx context.Context, l lease.Lease) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	existing, ok := s.byHw[l.HwAddr]
	if !ok {
		return &storage.ErrNotFound{Key: mac.LongAddress(l.HwAddr)}
	}

	if existing.Short != l.Short {
		return storage.ErrShortMismatch
	}

	s.byHw[l.HwAddr] = l

	return nil
}

// Delete implements storage.LeaseStorage
func (s *Storage) Delete(ctx context.Context, hw mac.HardwareAddr) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	existing, ok := s.byHw[hw]
	if !ok {
		return &storage.ErrNotFound{Key: mac.LongAddress(hw)}
	}

	delete(s.byHw, hw)
	delete(s.byShort, existing.Short)

	return nil
}

// FindByHwAddr implements storage.LeaseStorage
func (s *Storage) FindByHwAddr(ctx context.Context, hw mac.HardwareAddr) (lease.Lease, error) {
	if !s.l.TryLock(ctx) {
		return lease.Lease{}, ctx.Err()
	}
	defer s.l.Unlock()

	l, ok := s.byHw[hw]
	if !ok {
		return lease.Lease{}, &storage.ErrNotFound{Key: mac.LongAddress(hw)}
	}

	return l, nil
}

// FindByShort implements storage.LeaseStorage
func (s *Storage) FindByShort(ctx context.Context, short mac.ShortAddr) (lease.Lease, error) {
	if !s.l.TryLock(ctx) {
		return lease.Lease{}, ctx.Err()
	}
	defer s.l.Unlock()

	hw, ok := s.byShort[short]
	if !ok {
		return lease.Lease{}, &storage.ErrNotFound{Key: mac.ShortAddress(short)}
	}

	return s.byHw[hw], nil
}

// List implements storage.LeaseStorage
func (s *Storage) List(ctx context.Context) ([]lease.Lease, error) {
	if !s.l.TryLock(ctx) {
		return nil, ctx.Err()
	}
	defer s.l.Unlock()

	leases := make([]lease.Lease, 0, len(s.byHw))
	for _, l := range s.byHw {
		leases = append(leases, l)
	}

	sort.Slice(leases, func(i, j int) bool {
		return leases[i].Short < leases[j].Short
	})

	return leases, nil
}

// Replace implements storage.LeaseStorage
func (s *Storage) Replace(ctx context.Context, leases iter.Seq[lease.Lease]) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	next := makeStorage()
	for l := range leases {
		if err := next.create(l); err != nil {
			return err
		}
	}

	s.byHw = next.byHw
	s.byShort = next.byShort

	return nil
}

// Close implements storage.LeaseStorage
func (s *Storage) Close() error {
	return nil
}

// compile time check
var _ storage.LeaseStorage = &Storage{}
