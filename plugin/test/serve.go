package test

import (
	"testing"

	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/stretchr/testify/require"

	// register the wpan server type
	_ "github.com/nextdhcp/nextpan/core/coordinator"
)

// Interface is the server block key used by CreateTestBed
const Interface = "wpan0"

// CreateTestBed creates a new caddy.Controller that is configured for
// testing the setup and configuration of plugins. It creates a dummy server
// block in the context of the "wpan" server type so plugins can safely assume
// coordinator.GetConfig(ctrl) will return a valid configuration. The server
// block itself serves the interface wpan0
func CreateTestBed(t *testing.T, input string) *caddy.Controller {
	ctrl := caddy.NewTestController("wpan", input)
	ctx := ctrl.Context()

	serverBlock := caddyfile.ServerBlock{
		Keys:   []string{Interface},
		Tokens: map[string][]caddyfile.Token{},
	}

	blks, err := ctx.InspectServerBlocks("test-source", []caddyfile.ServerBlock{serverBlock})
	require.NoError(t, err)
	require.Equal(t, []caddyfile.ServerBlock{serverBlock}, blks)

	ctrl.Key = Interface

	return ctrl
}
