package lua

import (
	"context"

	"github.com/apex/log"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
	lua "github.com/yuin/gopher-lua"
)

// LeaseModule exposes read access to the lease store of the interface
// and a logging function to policy scripts
type LeaseModule struct {
	ctx   context.Context
	store *lease.Store

	// Log is used by the log function. Defaults to log.Log
	Log log.Interface
}

// Setup configures the lua state L and adds global symbols to interact with
// the lease store
func (m *LeaseModule) Setup(L *lua.LState) error {
	// lookup("00:12:4b:00:01:02:03:04") -> "0x8001" or nil
	L.SetGlobal("lookup", L.NewFunction(m.luaLookup))

	// lease_count() -> number
	L.SetGlobal("lease_count", L.NewFunction(m.luaLeaseCount))

	// log("message")
	L.SetGlobal("log", L.NewFunction(m.luaLog))

	return nil
}

func (m *LeaseModule) bind(ctx context.Context, store *lease.Store) {
	m.ctx = ctx
	m.store = store
}

func (m *LeaseModule) luaLookup(L *lua.LState) int {
	str, ok := L.Get(1).(lua.LString)
	if !ok {
		L.ArgError(1, "expected a hardware address")
		return 0
	}

	hw, err := mac.ParseHardwareAddr(string(str))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	if m.store == nil {
		L.Push(lua.LNil)
		return 1
	}

	l, err := m.store.Lookup(m.ctx, hw)
	if err != nil {
		if lease.IsUnknownLease(err) {
			L.Push(lua.LNil)
			return 1
		}

		L.RaiseError("%s", err.Error())
		return 0
	}

	L.Push(lua.LString(l.Short.String()))
	return 1
}

func (m *LeaseModule) luaLeaseCount(L *lua.LState) int {
	if m.store == nil {
		L.Push(lua.LNumber(0))
		return 1
	}

	n, err := m.store.Len(m.ctx)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	L.Push(lua.LNumber(n))
	return 1
}

func (m *LeaseModule) luaLog(L *lua.LState) int {
	l := m.Log
	if l == nil {
		l = log.Log
	}

	l.Infof("%s", L.ToString(1))
	return 0
}
