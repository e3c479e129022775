package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/nextdhcp/nextpan/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cases := []struct {
		I string
		E bool
		L log.Level
		F string
		O string
	}{
		{"log debug", false, log.DebugLevel, formatAuto, ""},
		{"log warn", false, log.WarnLevel, formatAuto, ""},
		{"log", true, 0, "", ""},
		{"log verbose", true, 0, "", ""},
		{"log info error", true, 0, "", ""},
		{"log info {\n format json\n}", false, log.InfoLevel, formatJSON, ""},
		{"log info {\n format yaml\n}", true, 0, "", ""},
		{"log info {\n output-file /tmp/pan.log\n format text\n}", false, log.InfoLevel, formatText, "/tmp/pan.log"},
		{"log info {\n output-file\n}", true, 0, "", ""},
		{"log info {\n color yes\n}", true, 0, "", ""},
		{"log info\nlog debug", true, 0, "", ""},
	}

	for idx, c := range cases {
		ctrl := test.CreateTestBed(t, c.I)
		cfg, err := parseConfig(ctrl)

		if c.E {
			assert.Error(t, err, "case #%d", idx)
			continue
		}

		require.NoError(t, err, "case #%d", idx)
		assert.Equal(t, c.L, cfg.level, "case #%d", idx)
		assert.Equal(t, c.F, cfg.format, "case #%d", idx)
		assert.Equal(t, c.O, cfg.output, "case #%d", idx)
	}
}

func TestHandler(t *testing.T) {
	var buf bytes.Buffer

	cfg := &config{format: formatJSON}
	assert.IsType(t, &json.Handler{}, cfg.handler(&buf))

	cfg = &config{format: formatAuto}
	assert.IsType(t, &text.Handler{}, cfg.handler(&buf))
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nextpan.log")

	cfg := &config{format: formatJSON, output: path}
	out, err := cfg.open()
	require.NoError(t, err)
	defer out.(*os.File).Close()

	logger := &log.Logger{Handler: cfg.handler(out), Level: log.InfoLevel}
	logger.WithField("iface", "wpan0").Info("granted")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"granted"`)
	assert.Contains(t, string(content), `"iface":"wpan0"`)

	cfg = &config{output: filepath.Join(t.TempDir(), "missing", "nextpan.log")}
	_, err = cfg.open()
	assert.Error(t, err)
}
