package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/lease/storage/tests"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	dir := t.TempDir()

	factory := func(ctx context.Context) storage.LeaseStorage {
		s, err := Open(filepath.Join(dir, "leases"))
		if err != nil {
			panic(err.Error())
		}
		return s
	}

	teardown := func(s storage.LeaseStorage) {
		s.Close()
	}

	tests.Run(t, factory, teardown)
}

func TestParse(t *testing.T) {
	input := `# comment
lease 00:11:22:33:44:55:66:77 0x8001 1700000000

lease 0011223344556678 8002 1700000001
`

	leases, err := Parse("leases", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, leases, 2)

	assert.Equal(t, mac.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}, leases[0].HwAddr)
	assert.Equal(t, mac.ShortAddr(0x8001), leases[0].Short)
	assert.Equal(t, int64(1700000000), leases[0].GrantedAt.Unix())
	assert.Equal(t, mac.ShortAddr(0x8002), leases[1].Short)

	cases := []string{
		"bind 00:11:22:33:44:55:66:77 0x8001 1",
		"lease 00:11:22:33:44:55:66:77 0x8001",
		"lease 00:11:22 0x8001 1",
		"lease 00:11:22:33:44:55:66:77 0xzz 1",
		"lease 00:11:22:33:44:55:66:77 0x8001 yesterday",
	}
	for _, c := range cases {
		_, err := Parse("leases", strings.NewReader(c))
		assert.Error(t, err, c)
	}
}

func TestWriteParse(t *testing.T) {
	leases := []lease.Lease{
		{HwAddr: mac.HardwareAddr{1, 2, 3, 4, 5, 6, 7, 8}, Short: 0x8001, GrantedAt: time.Unix(10, 0)},
		{HwAddr: mac.HardwareAddr{8, 7, 6, 5, 4, 3, 2, 1}, Short: 0xfffd, GrantedAt: time.Unix(20, 0)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, leases))
	assert.Contains(t, buf.String(), "lease 01:02:03:04:05:06:07:08 0x8001 10\n")

	parsed, err := Parse("buf", &buf)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	for i := range leases {
		assert.Equal(t, leases[i].HwAddr, parsed[i].HwAddr)
		assert.Equal(t, leases[i].Short, parsed[i].Short)
		assert.Equal(t, leases[i].GrantedAt.Unix(), parsed[i].GrantedAt.Unix())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leases")

	src := lease.NewStore()
	var hws []mac.HardwareAddr
	for i := byte(0); i < 20; i++ {
		hw := mac.HardwareAddr{0xde, 0xad, 0, 0, 0, 0, 0, 20 - i}
		hws = append(hws, hw)
		_, err := src.Allocate(ctx, hw)
		require.NoError(t, err)
	}
	_, err := src.ReleaseHardware(ctx, hws[3])
	require.NoError(t, err)

	s, err := Open(path)
	require.NoError(t, err)
	db := storage.NewDatabase(s)
	n, err := db.Dump(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 19, n)

	reopened, err := Open(path)
	require.NoError(t, err)

	dst := lease.NewStore()
	n, err = storage.NewDatabase(reopened).Load(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 19, n)

	pairs := func(s *lease.Store) map[mac.HardwareAddr]mac.ShortAddr {
		seq, err := s.Snapshot(ctx)
		require.NoError(t, err)

		m := make(map[mac.HardwareAddr]mac.ShortAddr)
		for l := range seq {
			m[l.HwAddr] = l.Short
		}
		return m
	}

	assert.Equal(t, pairs(src), pairs(dst))
}

func TestOpenMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leases")
	require.NoError(t, os.WriteFile(path, []byte("lease nope\n"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvLeaseFile, "")

	p, err := ResolvePath(nil)
	assert.NoError(t, err)
	assert.Equal(t, DefaultPath, p)

	t.Setenv(EnvLeaseFile, "/tmp/from-env")
	p, err = ResolvePath(map[string][]string{})
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", p)

	p, err = ResolvePath(map[string][]string{"file": {"/tmp/from-block"}})
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/from-block", p)

	p, err = ResolvePath(map[string][]string{"__args__": {"/tmp/from-args"}})
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/from-args", p)

	_, err = ResolvePath(map[string][]string{"__args__": {"a", "b"}})
	assert.Error(t, err)
}
