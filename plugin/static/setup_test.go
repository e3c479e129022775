package static

import (
	"context"
	"testing"

	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPluginSetup(t *testing.T) {
	c := test.CreateTestBed(t, "static 00124b0001020304 0x0010")
	addr, err := parseStatic(c, coordinator.GetConfig(c))
	require.NoError(t, err)
	assert.Len(t, addr, 1)
	assert.Equal(t, mac.ShortAddr(0x0010), addr[test.HwAddr])

	c = test.CreateTestBed(t, "static 00:12:4b:00:01:02:03:04 10")
	addr, err = parseStatic(c, coordinator.GetConfig(c))
	require.NoError(t, err)
	assert.Equal(t, mac.ShortAddr(0x0010), addr[test.HwAddr])

	invalid := []string{
		"static 00124b0001020304",
		"static 00124b00 0x0010",
		"static 00124b0001020304 foo",
		"static 00124b0001020304 0x0010 0x0011",
		"static 00124b0001020304 0xfffe",
		"static 00124b0001020304 0xffff",
		"static 00124b0001020304 0x0000",
		// part of the default dynamic range
		"static 00124b0001020304 0x8001",
		`
		static 00124b0001020304 0x0010
		static 00124b0001020305 0x0010
		`,
		`
		static 00124b0001020304 0x0010
		static 00124b0001020304 0x0011
		`,
	}

	for _, cfg := range invalid {
		c = test.CreateTestBed(t, cfg)
		_, err = parseStatic(c, coordinator.GetConfig(c))
		assert.Error(t, err, cfg)
	}
}

func TestSetupStaticAddsPlugin(t *testing.T) {
	c := test.CreateTestBed(t, "static 00124b0001020304 0x0010")
	require.NoError(t, setupStatic(c))

	cfg := coordinator.GetConfig(c)
	cfg.Store = lease.NewStore()

	srv, err := coordinator.NewServer(cfg)
	require.NoError(t, err)

	resp, err := srv.ServeIndication(context.Background(), test.AssociateIndication)
	require.NoError(t, err)
	require.IsType(t, &mac.AssociateResponse{}, resp)
	assert.Equal(t, mac.ShortAddr(0x0010), resp.(*mac.AssociateResponse).Short)

	n, err := cfg.Store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
