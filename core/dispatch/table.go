package dispatch

import (
	"fmt"

	"github.com/nextdhcp/nextpan/core/mac"
)

// Table holds all command descriptors of the client tool
type Table struct {
	order  []*Descriptor
	byName map[string]*Descriptor
}

// NewTable builds a table from descs. Names must be unique
func NewTable(descs ...*Descriptor) (*Table, error) {
	t := &Table{
		byName: make(map[string]*Descriptor, len(descs)),
	}

	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("descriptor without name")
		}
		if d.Parse == nil {
			return nil, fmt.Errorf("%s: no parse function", d.Name)
		}
		if _, ok := t.byName[d.Name]; ok {
			return nil, fmt.Errorf("%s: command already registered", d.Name)
		}

		t.byName[d.Name] = d
		t.order = append(t.order, d)
	}

	return t, nil
}

// Lookup returns the descriptor for name
func (t *Table) Lookup(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// ByResponse returns the first descriptor expecting cmd as its reply
func (t *Table) ByResponse(cmd mac.Command) (*Descriptor, bool) {
	for _, d := range t.order {
		if !d.Listener && d.Response == cmd && d.Handle != nil {
			return d, true
		}
	}

	return nil, false
}

// All returns all descriptors in registration order
func (t *Table) All() []*Descriptor {
	return append([]*Descriptor(nil), t.order...)
}
