package lease

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/ppacher/webthings-mqtt-gateway/pkg/mutex"
)

// Store keeps track of short address leases. Leases are indexed by
// hardware and by short address and both indices always hold the same
// set of leases
type Store struct {
	l       *mutex.Mutex // context.Context aware mutex to protect all fields below
	byHw    map[mac.HardwareAddr]*Lease
	byShort map[mac.ShortAddr]*Lease
	cursor  mac.ShortAddr // last allocated address, the next search starts after it

	rng Range
	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithRange sets the range used for allocation
func WithRange(r Range) Option {
	return func(s *Store) {
		s.rng = r
	}
}

// WithClock replaces the time source used for GrantedAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty lease store
func NewStore(opts ...Option) *Store {
	s := &Store{
		l:       mutex.New(),
		byHw:    make(map[mac.HardwareAddr]*Lease),
		byShort: make(map[mac.ShortAddr]*Lease),
		rng:     DefaultRange,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cursor = s.rng.Min - 1

	return s
}

// Range returns the allocation range of the store
func (s *Store) Range() Range {
	return s.rng
}

// Allocate returns the short address leased to hw. If hw does not yet
// hold a lease a new address is allocated round-robin from the range.
// When the range is exhausted mac.ShortAllocFailed is returned together
// with ErrNoAddressAvailable and the store is left untouched
func (s *Store) Allocate(ctx context.Context, hw mac.HardwareAddr) (mac.ShortAddr, error) {
	if !s.l.TryLock(ctx) {
		return mac.ShortAllocFailed, ctx.Err()
	}
	defer s.l.Unlock()

	if l, ok := s.byHw[hw]; ok {
		l.GrantedAt = s.now()
		return l.Short, nil
	}

	if s.rng.Len() == 0 {
		return mac.ShortAllocFailed, ErrNoAddressAvailable
	}

	start := s.rng.Next(s.cursor)
	candidate := start
	for {
		if _, used := s.byShort[candidate]; !used {
			break
		}

		candidate = s.rng.Next(candidate)
		if candidate == start {
			return mac.ShortAllocFailed, ErrNoAddressAvailable
		}
	}

	l := &Lease{
		HwAddr:    hw,
		Short:     candidate,
		GrantedAt: s.now(),
	}
	s.byHw[hw] = l
	s.byShort[candidate] = l
	s.cursor = candidate

	return candidate, nil
}

// ReleaseHardware removes the lease of hw and returns it
func (s *Store) ReleaseHardware(ctx context.Context, hw mac.HardwareAddr) (Lease, error) {
	if !s.l.TryLock(ctx) {
		return Lease{}, ctx.Err()
	}
	defer s.l.Unlock()

	l, ok := s.byHw[hw]
	if !ok {
		return Lease{}, &UnknownLeaseError{Key: mac.LongAddress(hw)}
	}

	s.remove(l)
	return *l, nil
}

// ReleaseShort removes the lease of the short address and returns it
func (s *Store) ReleaseShort(ctx context.Context, short mac.ShortAddr) (Lease, error) {
	if !s.l.TryLock(ctx) {
		return Lease{}, ctx.Err()
	}
	defer s.l.Unlock()

	l, ok := s.byShort[short]
	if !ok {
		return Lease{}, &UnknownLeaseError{Key: mac.ShortAddress(short)}
	}

	s.remove(l)
	return *l, nil
}

// Release removes the lease named by addr, which may be either a short or
// a hardware address
func (s *Store) Release(ctx context.Context, addr mac.Address) (Lease, error) {
	switch addr.Mode {
	case mac.AddrLong:
		return s.ReleaseHardware(ctx, addr.Hardware)
	case mac.AddrShort:
		return s.ReleaseShort(ctx, addr.Short)
	}

	return Lease{}, &UnknownLeaseError{Key: addr}
}

func (s *Store) remove(l *Lease) {
	delete(s.byHw, l.HwAddr)
	delete(s.byShort, l.Short)
}

// Lookup returns the lease held by hw
func (s *Store) Lookup(ctx context.Context, hw mac.HardwareAddr) (Lease, error) {
	if !s.l.TryLock(ctx) {
		return Lease{}, ctx.Err()
	}
	defer s.l.Unlock()

	l, ok := s.byHw[hw]
	if !ok {
		return Lease{}, &UnknownLeaseError{Key: mac.LongAddress(hw)}
	}

	return *l, nil
}

// LookupShort returns the lease of a short address
func (s *Store) LookupShort(ctx context.Context, short mac.ShortAddr) (Lease, error) {
	if !s.l.TryLock(ctx) {
		return Lease{}, ctx.Err()
	}
	defer s.l.Unlock()

	l, ok := s.byShort[short]
	if !ok {
		return Lease{}, &UnknownLeaseError{Key: mac.ShortAddress(short)}
	}

	return *l, nil
}

// Len returns the number of live leases
func (s *Store) Len(ctx context.Context) (int, error) {
	if !s.l.TryLock(ctx) {
		return 0, ctx.Err()
	}
	defer s.l.Unlock()

	return len(s.byHw), nil
}

// Snapshot returns a point-in-time copy of all leases ordered by short
// address. The store is not locked while the sequence is consumed and the
// sequence may be iterated more than once
func (s *Store) Snapshot(ctx context.Context) (iter.Seq[Lease], error) {
	if !s.l.TryLock(ctx) {
		return nil, ctx.Err()
	}

	leases := make([]Lease, 0, len(s.byShort))
	for _, l := range s.byShort {
		leases = append(leases, *l)
	}
	s.l.Unlock()

	sort.Slice(leases, func(i, j int) bool {
		return leases[i].Short < leases[j].Short
	})

	return func(yield func(Lease) bool) {
		for _, l := range leases {
			if !yield(l) {
				return
			}
		}
	}, nil
}

// Restore adds previously persisted leases to the store. Either all leases
// are added or, if one of them conflicts with another or with an existing
// lease, none. Leases outside of the range are kept so devices keep their
// address when the range shrinks; the allocator never hands them out
func (s *Store) Restore(ctx context.Context, leases []Lease) error {
	if !s.l.TryLock(ctx) {
		return ctx.Err()
	}
	defer s.l.Unlock()

	seenHw := make(map[mac.HardwareAddr]struct{}, len(leases))
	seenShort := make(map[mac.ShortAddr]struct{}, len(leases))

	for _, l := range leases {
		if l.Short.Reserved() {
			return fmt.Errorf("lease for %s uses reserved short address %s", l.HwAddr, l.Short)
		}

		if _, ok := seenHw[l.HwAddr]; ok {
			return fmt.Errorf("duplicate lease for %s", l.HwAddr)
		}
		if _, ok := s.byHw[l.HwAddr]; ok {
			return fmt.Errorf("duplicate lease for %s", l.HwAddr)
		}

		if _, ok := seenShort[l.Short]; ok {
			return fmt.Errorf("short address %s leased twice", l.Short)
		}
		if _, ok := s.byShort[l.Short]; ok {
			return fmt.Errorf("short address %s leased twice", l.Short)
		}

		seenHw[l.HwAddr] = struct{}{}
		seenShort[l.Short] = struct{}{}
	}

	for _, l := range leases {
		l := l
		s.byHw[l.HwAddr] = &l
		s.byShort[l.Short] = &l
	}

	return nil
}
