package coordinator

import (
	"fmt"

	"github.com/nextdhcp/nextpan/core/utils/iface"
)

func getStartupInfo(cfg []*Config) string {
	s := ""

	for _, c := range cfg {
		db := c.DatabaseName
		if db == "" {
			db = "custom"
		}

		s += fmt.Sprintf("\t%s short addresses %s (database %s)\n", iface.Describe(c.Interface), c.Range, db)
	}

	if s != "" {
		s = "Coordinating the following interfaces\n" + s
	}

	return s
}
