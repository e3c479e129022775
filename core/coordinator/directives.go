package coordinator

// Directives that we register at caddy. Handlers observing the final
// response come before handlers that answer indications themselves
var Directives = []string{
	"log",
	"range",
	"database",
	"prometheus",
	"mqtt",
	"gotify",
	"static",
	"lua",
}
