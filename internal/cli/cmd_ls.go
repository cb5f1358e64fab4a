package cli

import (
	"errors"

	flag "github.com/spf13/pflag"

	"electrolytes/internal/electrolyte"
)

func lsCommand() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	flags.Bool("user", false, "List only user-defined components")
	flags.Bool("default", false, "List only default components")

	return &Command{
		Flags: flags,
		Usage: "ls [--user|--default]",
		Short: "List components in the database",
		Exec: func(o *IO, db *electrolyte.Database, args []string) error {
			if len(args) > 0 {
				return errors.New("unexpected argument: " + args[0])
			}

			userOnly, defaultOnly, err := layerFlags(flags)
			if err != nil {
				return err
			}

			names, err := layerNames(db, userOnly, defaultOnly)
			if err != nil {
				return err
			}

			for _, name := range names {
				o.Println(name)
			}

			return nil
		},
	}
}

var errLayerFlagsExclusive = errors.New("--user and --default are mutually exclusive")

// layerFlags reads the --user/--default pair shared by ls and search.
func layerFlags(flags *flag.FlagSet) (userOnly, defaultOnly bool, err error) {
	userOnly, _ = flags.GetBool("user")
	defaultOnly, _ = flags.GetBool("default")

	if userOnly && defaultOnly {
		return false, false, errLayerFlagsExclusive
	}

	return userOnly, defaultOnly, nil
}

// layerNames returns the sorted names of the requested layer(s).
func layerNames(db *electrolyte.Database, userOnly, defaultOnly bool) ([]string, error) {
	if userOnly {
		return db.UserDefinedNames()
	}

	all, err := db.Names()
	if err != nil {
		return nil, err
	}

	if !defaultOnly {
		return all, nil
	}

	defaults := all[:0:0]

	for _, name := range all {
		userDefined, err := db.IsUserDefined(name)
		if err != nil {
			return nil, err
		}

		if !userDefined {
			defaults = append(defaults, name)
		}
	}

	return defaults, nil
}
