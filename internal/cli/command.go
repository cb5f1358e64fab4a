package cli

import (
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"electrolytes/internal/electrolyte"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags. Nil for commands whose
	// grammar pflag cannot express (add parses its charge options by
	// hand); those handle --help themselves via hasHelpFlag.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "electrolytes" in
	// help. Includes the command name and arguments.
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(o *IO, db *electrolyte.Database, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-46s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "electrolytes <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: electrolytes", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command. Returns exit code.
// Handles error printing internally for consistent output ordering.
func (c *Command) Run(o *IO, db *electrolyte.Database, args []string) int {
	if c.Flags == nil {
		if hasHelpFlag(args) {
			c.PrintHelp(o)

			return 0
		}

		if err := c.Exec(o, db, args); err != nil {
			return c.fail(o, err)
		}

		return 0
	}

	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(o, db, c.Flags.Args()); err != nil {
		return c.fail(o, err)
	}

	return 0
}

func (c *Command) fail(o *IO, err error) int {
	// Per-item failures were already reported by the command; avoid a
	// duplicate line for the aggregate signal.
	if !errors.Is(err, errReported) {
		o.ErrPrintln("error:", err)
	}

	return 1
}

// errReported marks "some items failed and were printed as they
// happened"; it only carries the non-zero exit code.
var errReported = errors.New("errors occurred")

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
	}

	return false
}
