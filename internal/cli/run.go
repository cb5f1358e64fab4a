package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"electrolytes/internal/electrolyte"
)

// Version is the released version string.
const Version = "1.2.0"

const (
	consumedNone = 0
	consumedOne  = 1
	consumedTwo  = 2
)

// Run is the main entry point. Returns the exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(in, out, errOut)
	o.interactive = isTerminalReader(in)
	o.color = isTerminalWriter(out)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if flags.version {
		o.Println("electrolytes", Version)

		return 0
	}

	if len(flags.remaining) == 0 || flags.help {
		printUsage(o)

		return 0
	}

	cfg, err := electrolyte.LoadConfig(flags.dataDir, env)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	db := electrolyte.NewDatabase(cfg, errOut)

	name := flags.remaining[0]

	cmd := findCommand(name)
	if cmd == nil {
		o.ErrPrintln("error: unknown command:", name)
		printUsage(o)

		return 1
	}

	return cmd.Run(o, db, flags.remaining[1:])
}

// commands returns the command set. Rebuilt per call so each Run gets
// fresh pflag state.
func commands() []*Command {
	return []*Command{
		addCommand(),
		infoCommand(),
		lsCommand(),
		rmCommand(),
		searchCommand(),
	}
}

func findCommand(name string) *Command {
	for _, cmd := range commands() {
		if cmd.Name() == name {
			return cmd
		}
	}

	return nil
}

type globalFlags struct {
	dataDir   string
	version   bool
	help      bool
	remaining []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseGlobalFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command.
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseGlobalFlag tries to parse a flag at args[idx]. Returns the number
// of args consumed (0 if not a flag).
func parseGlobalFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if arg == "--data-dir" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.dataDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--data-dir="); ok {
		flags.dataDir = after

		return consumedOne, nil
	}

	if arg == "--version" {
		flags.version = true

		return consumedOne, nil
	}

	if arg == "-h" || arg == "--help" {
		flags.help = true

		return len(args) - idx, nil
	}

	// Unknown flag.
	if strings.HasPrefix(arg, "--") {
		return consumedNone, fmt.Errorf("unknown flag: %s", arg)
	}

	// Not a flag (command name, or a charge option like +1/-1 that
	// belongs to a command).
	return consumedNone, nil
}

func printUsage(o *IO) {
	o.Println("electrolytes - database of electrolytes and their properties")
	o.Println()
	o.Println("Usage: electrolytes [options] <command> [args]")
	o.Println()
	o.Println("Options:")
	o.Println("  --data-dir <dir>   Store the user database under <dir>")
	o.Println("  --version          Show version and exit")
	o.Println()
	o.Println("Commands:")

	for _, cmd := range commands() {
		o.Println(cmd.HelpLine())
	}
}

// isTerminalReader reports whether in is the process's terminal stdin.
func isTerminalReader(in io.Reader) bool {
	f, ok := in.(*os.File)

	return ok && f == os.Stdin && isTerminal(f)
}

func isTerminalWriter(out io.Writer) bool {
	f, ok := out.(*os.File)

	return ok && isTerminal(f)
}
