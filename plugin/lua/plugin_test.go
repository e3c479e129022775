package lua

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policy = `
function associate(req)
	if req.hwaddr == "00:12:4b:00:01:02:03:04" then
		return "deny"
	end
	if req.hwaddr == "00:00:00:00:00:00:00:10" then
		return 0x0010
	end
	return true
end
`

func writeScript(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policy.lua")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestPlugin(t *testing.T) {
	next := &test.Recorder{Next: test.GrantHandler(0x8001)}
	p := &Plugin{
		Next:   next,
		Runner: newRunner(t, policy),
		L:      log.Log,
	}

	t.Run("deny", func(t *testing.T) {
		resp := test.NewResponse(test.AssociateIndication)
		require.NoError(t, p.ServeWPAN(context.Background(), test.AssociateIndication, resp))
		assert.Equal(t, mac.StatusAccessDenied, resp.Status)
		assert.Equal(t, mac.ShortAllocFailed, resp.Short)
		assert.Empty(t, next.Requests)
	})

	t.Run("assign", func(t *testing.T) {
		ind := *test.AssociateIndication
		ind.Source = mac.HardwareAddr{7: 0x10}

		resp := test.NewResponse(&ind)
		require.NoError(t, p.ServeWPAN(context.Background(), &ind, resp))
		assert.Equal(t, mac.StatusSuccess, resp.Status)
		assert.Equal(t, mac.ShortAddr(0x0010), resp.Short)
		assert.Empty(t, next.Requests)
	})

	t.Run("continue", func(t *testing.T) {
		ind := *test.AssociateIndication
		ind.Source = mac.HardwareAddr{7: 0x11}

		resp := test.NewResponse(&ind)
		require.NoError(t, p.ServeWPAN(context.Background(), &ind, resp))
		assert.Equal(t, mac.ShortAddr(0x8001), resp.Short)
		assert.Len(t, next.Requests, 1)
	})

	t.Run("disassociations are passed on", func(t *testing.T) {
		require.NoError(t, p.ServeWPAN(context.Background(), test.DisassociateIndication, nil))
		assert.Len(t, next.Requests, 2)
	})

	assert.Equal(t, "lua", p.Name())
}

func TestPluginAssignmentConflicts(t *testing.T) {
	store := lease.NewStore()
	ctx := lease.WithStore(context.Background(), store)

	holder := mac.HardwareAddr{7: 0x01}
	short, err := store.Allocate(ctx, holder)
	require.NoError(t, err)
	require.Equal(t, mac.ShortAddr(0x8001), short)

	require.NoError(t, store.Restore(ctx, []lease.Lease{
		{HwAddr: mac.HardwareAddr{7: 0x03}, Short: 0x0020},
	}))

	cases := []struct {
		name   string
		script string
		source mac.HardwareAddr
		status mac.Status
		short  mac.ShortAddr
	}{
		{"address from the dynamic range", `function associate(req) return 0x8001 end`, mac.HardwareAddr{7: 0x02}, mac.StatusAccessDenied, mac.ShortAllocFailed},
		{"free address in the dynamic range", `function associate(req) return 0x9000 end`, mac.HardwareAddr{7: 0x02}, mac.StatusAccessDenied, mac.ShortAllocFailed},
		{"address leased to another device", `function associate(req) return "0x0020" end`, mac.HardwareAddr{7: 0x02}, mac.StatusAccessDenied, mac.ShortAllocFailed},
		{"address leased to the same device", `function associate(req) return "0x0020" end`, mac.HardwareAddr{7: 0x03}, mac.StatusSuccess, 0x0020},
		{"free address outside the range", `function associate(req) return 0x0030 end`, mac.HardwareAddr{7: 0x02}, mac.StatusSuccess, 0x0030},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			next := &test.Recorder{Next: test.NoOpHandler}
			p := &Plugin{
				Next:   next,
				Runner: newRunner(t, c.script),
				L:      log.Log,
			}

			ind := *test.AssociateIndication
			ind.Source = c.source

			resp := test.NewResponse(&ind)
			require.NoError(t, p.ServeWPAN(ctx, &ind, resp))
			assert.Equal(t, c.status, resp.Status)
			assert.Equal(t, c.short, resp.Short)
			assert.Empty(t, next.Requests)
		})
	}

	// the policy never changes the store
	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	l, err := store.LookupShort(ctx, 0x8001)
	require.NoError(t, err)
	assert.Equal(t, holder, l.HwAddr)
}

func TestPluginTimeout(t *testing.T) {
	p := &Plugin{
		Next:    test.NoOpHandler,
		Runner:  newRunner(t, `function associate(req) while true do end end`),
		Timeout: 20 * time.Millisecond,
		L:       log.Log,
	}

	resp := test.NewResponse(test.AssociateIndication)
	assert.Error(t, p.ServeWPAN(context.Background(), test.AssociateIndication, resp))
}

func TestSetupLua(t *testing.T) {
	path := writeScript(t, policy)

	c := test.CreateTestBed(t, "lua "+path+" {\n timeout 50ms\n}")
	p, err := makeLuaPlugin(c)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, p.Timeout)
	assert.NotNil(t, p.Runner)

	invalid := []string{
		"lua",
		"lua " + path + " other",
		"lua " + path + " {\n timeout\n}",
		"lua " + path + " {\n timeout soon\n}",
		"lua " + path + " {\n color red\n}",
		"lua " + filepath.Join(t.TempDir(), "missing.lua"),
		"lua " + writeScript(t, "local x = 1"),
		"lua " + path + "\nlua " + path,
	}

	for _, input := range invalid {
		c := test.CreateTestBed(t, input)
		_, err := makeLuaPlugin(c)
		assert.Error(t, err, input)
	}
}

func TestSetupLuaChain(t *testing.T) {
	c := test.CreateTestBed(t, "lua "+writeScript(t, policy))
	require.NoError(t, setupLua(c))

	cfg := coordinator.GetConfig(c)
	cfg.Store = lease.NewStore()

	srv, err := coordinator.NewServer(cfg)
	require.NoError(t, err)

	resp, err := srv.ServeIndication(context.Background(), test.AssociateIndication)
	require.NoError(t, err)
	assert.Equal(t, mac.StatusAccessDenied, resp.(*mac.AssociateResponse).Status)

	ind := *test.AssociateIndication
	ind.Source = mac.HardwareAddr{7: 0x11}
	resp, err = srv.ServeIndication(context.Background(), &ind)
	require.NoError(t, err)
	assert.Equal(t, mac.ShortAddr(0x8001), resp.(*mac.AssociateResponse).Short)
}
