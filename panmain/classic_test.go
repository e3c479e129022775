package panmain

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseClassic(t *testing.T, args ...string) *classicFlags {
	t.Helper()

	f := &classicFlags{}
	fs := flag.NewFlagSet("nextpan", flag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse(args))

	return f
}

func TestClassicPanfile(t *testing.T) {
	cases := []struct {
		args    []string
		panfile string
	}{
		{
			args:    []string{"-i", "wpan0"},
			panfile: "wpan0 {\n\tlog info\n}\n",
		},
		{
			args:    []string{"-i", "wpan0", "-d", "2", "-l", "/var/lib/leases"},
			panfile: "wpan0 {\n\tlog debug\n\tdatabase file \"/var/lib/leases\"\n}\n",
		},
		{
			args:    []string{"-i", "wpan1", "-m", "256", "-n", "0x01ff"},
			panfile: "wpan1 {\n\tlog info\n\trange 0x0100 0x01ff\n}\n",
		},
		{
			args:    []string{"-i", "wpan1", "-m", "0x9000"},
			panfile: "wpan1 {\n\tlog info\n\trange 0x9000 0xfffd\n}\n",
		},
	}

	for _, c := range cases {
		out, err := parseClassic(t, c.args...).panfile()
		require.NoError(t, err, c.args)
		assert.Equal(t, c.panfile, string(out), c.args)
	}
}

func TestClassicPanfileInvalid(t *testing.T) {
	invalid := [][]string{
		{"-i", "wpan/0"},
		{"-i", "wpan0", "-m", "foo"},
		{"-i", "wpan0", "-n", "0x10000"},
		{"-i", "wpan0", "-m", "0x9000", "-n", "0x8000"},
		{"-i", "wpan0", "-n", "0xffff"},
	}

	for _, args := range invalid {
		_, err := parseClassic(t, args...).panfile()
		assert.Error(t, err, args)
	}
}

func TestClassicLoader(t *testing.T) {
	defer func(old classicFlags) { classic = old }(classic)

	classic = classicFlags{}
	input, err := classicLoader(serverType)
	assert.NoError(t, err)
	assert.Nil(t, input)

	classic = classicFlags{iface: "wpan0"}
	input, err = classicLoader(serverType)
	require.NoError(t, err)
	require.NotNil(t, input)
	assert.Equal(t, serverType, input.ServerType())
	assert.Contains(t, string(input.Body()), "wpan0 {")
}

func TestConfigLoader(t *testing.T) {
	defer func(old string) { conf = old }(conf)

	conf = ""
	input, err := configLoader(serverType)
	assert.NoError(t, err)
	assert.Nil(t, input)

	conf = "testdata/does-not-exist"
	_, err = configLoader(serverType)
	assert.Error(t, err)
}
