package cli

import (
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"electrolytes/internal/electrolyte"
)

func searchCommand() *Command {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	flags.Bool("user", false, "Search only user-defined components")
	flags.Bool("default", false, "Search only default components")

	return &Command{
		Flags: flags,
		Usage: "search <text> [--user|--default]",
		Short: "Search for a name in the database",
		Exec: func(o *IO, db *electrolyte.Database, args []string) error {
			if len(args) == 0 {
				return errors.New("search text is required")
			}

			if len(args) > 1 {
				return errors.New("unexpected argument: " + args[1])
			}

			userOnly, defaultOnly, err := layerFlags(flags)
			if err != nil {
				return err
			}

			return runSearch(o, db, args[0], userOnly, defaultOnly)
		},
	}
}

func runSearch(o *IO, db *electrolyte.Database, text string, userOnly, defaultOnly bool) error {
	text = strings.ToUpper(text)

	names, err := layerNames(db, userOnly, defaultOnly)
	if err != nil {
		return err
	}

	for _, name := range names {
		index := strings.Index(name, text)
		if index == -1 {
			continue
		}

		o.Println(name[:index] + o.Bold(name[index:index+len(text)]) + name[index+len(text):])
	}

	return nil
}
