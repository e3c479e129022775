package coordinator

import (
	"testing"

	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	memstorage "github.com/nextdhcp/nextpan/core/lease/storage/drivers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectServerBlocks(t *testing.T) {
	ctx := newContext(nil).(*wpanContext)

	blocks := []caddyfile.ServerBlock{
		{Keys: []string{"wpan0", "wpan1"}},
		{Keys: []string{"wpan2"}},
	}

	res, err := ctx.InspectServerBlocks("Panfile", blocks)
	require.NoError(t, err)
	assert.Equal(t, blocks, res)

	require.Len(t, ctx.configs, 3)
	assert.Equal(t, "wpan0", ctx.keyToConfig["0:0"].Interface)
	assert.Equal(t, "wpan1", ctx.keyToConfig["0:1"].Interface)
	assert.Equal(t, "wpan2", ctx.keyToConfig["1:0"].Interface)
	assert.Equal(t, lease.DefaultRange, ctx.keyToConfig["1:0"].Range)
	assert.NotNil(t, ctx.keyToConfig["1:0"].Logger)
}

func TestInspectServerBlocksInvalid(t *testing.T) {
	cases := [][]caddyfile.ServerBlock{
		{{Keys: []string{"wpan/0"}}},
		{{Keys: []string{"a-very-long-interface-name"}}},
		{{Keys: []string{"wpan0"}}, {Keys: []string{"wpan0"}}},
	}

	for _, blocks := range cases {
		ctx := newContext(nil).(*wpanContext)
		_, err := ctx.InspectServerBlocks("Panfile", blocks)
		assert.Error(t, err, blocks[0].Keys[0])
	}
}

func TestGetConfig(t *testing.T) {
	c := caddy.NewTestController(serverType, "")
	ctx := c.Context().(*wpanContext)

	_, err := ctx.InspectServerBlocks("Panfile", []caddyfile.ServerBlock{
		{Keys: []string{"wpan0"}},
		{Keys: []string{"wpan1"}},
	})
	require.NoError(t, err)

	c.ServerBlockIndex = 1
	cfg := GetConfig(c)
	require.NotNil(t, cfg)
	assert.Equal(t, "wpan1", cfg.Interface)

	c.ServerBlockIndex = 2
	assert.Nil(t, GetConfig(c))
}

func TestMakeServers(t *testing.T) {
	ctx := newContext(nil).(*wpanContext)

	_, err := ctx.InspectServerBlocks("Panfile", []caddyfile.ServerBlock{
		{Keys: []string{"wpan0"}},
	})
	require.NoError(t, err)

	cfg := ctx.keyToConfig["0:0"]
	cfg.Database = storage.NewDatabase(memstorage.New())

	servers, err := ctx.MakeServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)

	assert.NotNil(t, cfg.Store)
	assert.NotNil(t, cfg.Dial)
	assert.NotNil(t, cfg.chain)
	assert.Equal(t, lease.DefaultRange, cfg.Store.Range())

	assert.Equal(t, "wpan0", servers[0].(*Server).Address())
}

func TestStartupInfo(t *testing.T) {
	info := getStartupInfo([]*Config{
		{Interface: "nextpan-none0", Range: lease.DefaultRange, DatabaseName: "file"},
		{Interface: "nextpan-none1", Range: lease.Range{Min: 0x0100, Max: 0x01ff}},
	})

	assert.Equal(t, "Coordinating the following interfaces\n"+
		"\tnextpan-none0 (not present) short addresses 0x8001-0xfffd (database file)\n"+
		"\tnextpan-none1 (not present) short addresses 0x0100-0x01ff (database custom)\n", info)

	assert.Equal(t, "", getStartupInfo(nil))
}
