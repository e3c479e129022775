package dispatch

import (
	"testing"

	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	finished := false
	assoc := assocDescriptor()
	list := listDescriptor(&finished)
	event := &Descriptor{
		Name:     "event",
		Listener: true,
		Response: mac.CmdAssociateConf,
		Parse:    func([]string) (Params, error) { return nil, nil },
		Handle:   func(*Exchange, mac.Header, mac.Payload) Result { return Continue },
	}

	table, err := NewTable(list, event, assoc)
	require.NoError(t, err)

	d, ok := table.Lookup("assoc")
	assert.True(t, ok)
	assert.Same(t, assoc, d)

	_, ok = table.Lookup("nope")
	assert.False(t, ok)

	d, ok = table.ByResponse(mac.CmdAssociateConf)
	assert.True(t, ok)
	assert.Same(t, assoc, d, "listeners are never selected by response")

	_, ok = table.ByResponse(mac.CmdScanConf)
	assert.False(t, ok)

	all := table.All()
	require.Len(t, all, 3)
	assert.Equal(t, "list", all[0].Name)
	assert.Equal(t, "assoc", all[2].Name)
}

func TestTableValidation(t *testing.T) {
	_, err := NewTable(&Descriptor{Parse: func([]string) (Params, error) { return nil, nil }})
	assert.Error(t, err)

	_, err = NewTable(&Descriptor{Name: "x"})
	assert.Error(t, err)

	_, err = NewTable(assocDescriptor(), assocDescriptor())
	assert.EqualError(t, err, "assoc: command already registered")
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "continue", Continue.String())
	assert.Equal(t, "stop-ok", StopOK.String())
	assert.Equal(t, "stop-err", StopErr.String())
}
