package core

import (
	// Include the coordinator server type
	_ "github.com/nextdhcp/nextpan/core/coordinator"

	// Include all built-in directives
	_ "github.com/nextdhcp/nextpan/plugin/database"
	_ "github.com/nextdhcp/nextpan/plugin/gotify"
	_ "github.com/nextdhcp/nextpan/plugin/log"
	_ "github.com/nextdhcp/nextpan/plugin/lua"
	_ "github.com/nextdhcp/nextpan/plugin/mqtt"
	_ "github.com/nextdhcp/nextpan/plugin/prometheus"
	_ "github.com/nextdhcp/nextpan/plugin/ranges"
	_ "github.com/nextdhcp/nextpan/plugin/static"
)
