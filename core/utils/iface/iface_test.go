package iface

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		Name  string
		Valid bool
	}{
		{"wpan0", true},
		{"lowpan-coord", true},
		{"", false},
		{".", false},
		{"..", false},
		{"wpan/0", false},
		{"wpan:1", false},
		{"wpan 0", false},
		{"wpan\t0", false},
		{strings.Repeat("a", MaxNameLen), true},
		{strings.Repeat("a", MaxNameLen+1), false},
	}

	for _, c := range cases {
		err := Validate(c.Name)
		if c.Valid {
			assert.NoError(t, err, c.Name)
		} else {
			assert.Error(t, err, c.Name)
		}
	}
}

func TestUnknownInterface(t *testing.T) {
	assert.Equal(t, 0, Index("nextpan-none0"))
	assert.Equal(t, "nextpan-none0 (not present)", Describe("nextpan-none0"))
}
