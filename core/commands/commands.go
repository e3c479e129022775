// Package commands holds the command descriptors of the iz client tool.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/mac"
)

// Group names used by PrintUsage
const (
	GroupCommon = "Common commands"
	GroupMAC    = "MAC 802.15.4 commands"
)

// NewTable returns the descriptor table of all iz commands. Command output
// and local help are written to out
func NewTable(out io.Writer) *dispatch.Table {
	var table *dispatch.Table

	help := &dispatch.Descriptor{
		Name:  "help",
		Usage: "[command]",
		Doc:   "Print detailed help for a command.",
	}
	help.Parse = func(args []string) (dispatch.Params, error) {
		return nil, printHelp(out, table, help, args)
	}

	table, err := dispatch.NewTable(
		help,
		listCommand(),
		eventCommand(func(cmd mac.Command) (*dispatch.Descriptor, bool) {
			return table.ByResponse(cmd)
		}),
		scanCommand(),
		assocCommand(),
		disassocCommand(),
	)
	if err != nil {
		panic(err)
	}

	return table
}

// Group returns the usage group of the command name
func Group(name string) string {
	switch name {
	case "help", "list", "event":
		return GroupCommon
	}

	return GroupMAC
}

// PrintUsage writes the short help of all commands in table to w
func PrintUsage(w io.Writer, table *dispatch.Table) {
	for _, group := range []string{GroupCommon, GroupMAC} {
		fmt.Fprintf(w, "\n%s:\n", group)
		for _, d := range table.All() {
			if Group(d.Name) != group {
				continue
			}
			fmt.Fprintf(w, "  %s %s\n\t%s\n", d.Name, d.Usage, d.Doc)
		}
	}
}

func printHelp(out io.Writer, table *dispatch.Table, self *dispatch.Descriptor, args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintln(out, "Manage IEEE 802.15.4 network interfaces")
		PrintUsage(out, table)
		return dispatch.ErrHandledLocally
	case 1:
	default:
		return self.Errorf("too many arguments")
	}

	d, ok := table.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w %s", dispatch.ErrUnknownCommand, args[0])
	}

	fmt.Fprintf(out, "%s %s\n\t%s\n\n", d.Name, d.Usage, d.Doc)
	if d.Help != "" {
		fmt.Fprintln(out, d.Help)
	} else {
		fmt.Fprintln(out, "Detailed help is not available.")
	}

	return dispatch.ErrHandledLocally
}

// parseHex parses an unsigned hexadecimal number with an optional 0x prefix
func parseHex(s string, bits int) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, bits)
}
