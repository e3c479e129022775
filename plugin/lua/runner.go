package lua

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

// AssociateFunc is the name of the global lua function that is called for
// each association indication
const AssociateFunc = "associate"

// Verdict is the outcome of an association policy
type Verdict int

// Possible policy verdicts
const (
	// Continue passes the indication on to the next handler
	Continue Verdict = iota

	// Deny refuses the association
	Deny

	// Assign answers the association with the short address of the
	// decision
	Assign
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Deny:
		return "deny"
	case Assign:
		return "assign"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Decision is returned by Runner.Associate
type Decision struct {
	Verdict Verdict
	Short   mac.ShortAddr
}

// tableDecision is the table form a policy may return
type tableDecision struct {
	Status string
	Short  interface{}
}

// Runner executes an association policy script. The lua VM is not safe
// for concurrent use so all calls are serialized
type Runner struct {
	l      sync.Mutex
	vm     *lua.LState
	leases *LeaseModule
}

// NewFromReader creates and returns a new lua runner from the given input
// reader. The script must define a global associate function
func NewFromReader(input io.Reader) (*Runner, error) {
	content, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		vm:     lua.NewState(),
		leases: &LeaseModule{},
	}

	if err := r.leases.Setup(r.vm); err != nil {
		r.vm.Close()
		return nil, err
	}

	if err := r.vm.DoString(string(content)); err != nil {
		r.vm.Close()
		return nil, err
	}

	if r.vm.GetGlobal(AssociateFunc).Type() != lua.LTFunction {
		r.vm.Close()
		return nil, fmt.Errorf("script does not define a global %q function", AssociateFunc)
	}

	return r, nil
}

// NewFromFile creates and returns a new Runner from the given script file
func NewFromFile(filepath string) (*Runner, error) {
	reader, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return NewFromReader(reader)
}

// Close closes the lua VM
func (r *Runner) Close() error {
	r.l.Lock()
	defer r.l.Unlock()

	r.vm.Close()
	return nil
}

// Associate calls the associate function of the script for ind. store
// is made available to the script through the lease module and may be nil
func (r *Runner) Associate(ctx context.Context, store *lease.Store, ind *mac.AssociateIndication) (Decision, error) {
	r.l.Lock()
	defer r.l.Unlock()

	r.vm.SetContext(ctx)
	defer r.vm.RemoveContext()

	r.leases.bind(ctx, store)
	defer r.leases.bind(nil, nil)

	err := r.vm.CallByParam(lua.P{
		Fn:      r.vm.GetGlobal(AssociateFunc),
		NRet:    1,
		Protect: true,
	}, requestTable(r.vm, ind))
	if err != nil {
		return Decision{}, err
	}

	ret := r.vm.Get(-1)
	r.vm.Pop(1)

	return decide(ret)
}

func decide(ret lua.LValue) (Decision, error) {
	switch v := ret.(type) {
	case *lua.LNilType:
		return Decision{Verdict: Continue}, nil

	case lua.LBool:
		if bool(v) {
			return Decision{Verdict: Continue}, nil
		}
		return Decision{Verdict: Deny}, nil

	case lua.LString:
		switch string(v) {
		case "deny":
			return Decision{Verdict: Deny}, nil
		case "continue", "accept":
			return Decision{Verdict: Continue}, nil
		}
		return assign(string(v))

	case lua.LNumber:
		return assign(float64(v))

	case *lua.LTable:
		var td tableDecision
		if err := gluamapper.Map(v, &td); err != nil {
			return Decision{}, err
		}

		if td.Status == "deny" {
			return Decision{Verdict: Deny}, nil
		}

		if td.Short != nil {
			return assign(td.Short)
		}

		if td.Status == "" || td.Status == "continue" || td.Status == "accept" {
			return Decision{Verdict: Continue}, nil
		}

		return Decision{}, fmt.Errorf("unknown status %q", td.Status)
	}

	return Decision{}, fmt.Errorf("unsupported return value of type %s", ret.Type())
}

func assign(value interface{}) (Decision, error) {
	var short mac.ShortAddr

	switch v := value.(type) {
	case string:
		s, err := mac.ParseShortAddr(v)
		if err != nil {
			return Decision{}, err
		}
		short = s
	case float64:
		if v < 0 || v > 0xffff || v != float64(int(v)) {
			return Decision{}, fmt.Errorf("invalid short address %v", v)
		}
		short = mac.ShortAddr(v)
	default:
		return Decision{}, fmt.Errorf("invalid short address %v", v)
	}

	if short == 0 || short.Reserved() {
		return Decision{}, fmt.Errorf("policy returned the reserved short address %s", short)
	}

	return Decision{Verdict: Assign, Short: short}, nil
}

func requestTable(L *lua.LState, ind *mac.AssociateIndication) *lua.LTable {
	tbl := L.NewTable()

	tbl.RawSetString("iface", lua.LString(ind.Interface))
	tbl.RawSetString("devindex", lua.LNumber(ind.DevIndex))
	tbl.RawSetString("hwaddr", lua.LString(ind.Source.String()))
	tbl.RawSetString("capability", lua.LNumber(ind.Capability))
	tbl.RawSetString("wants_short", lua.LBool(ind.Capability.WantsShort()))
	tbl.RawSetString("ffd", lua.LBool(ind.Capability&mac.CapFFD != 0))

	return tbl
}
