package cli

import (
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"electrolytes/internal/electrolyte"
)

func rmCommand() *Command {
	flags := flag.NewFlagSet("rm", flag.ContinueOnError)
	flags.BoolP("force", "f", false, "Ignore non-existent components")

	return &Command{
		Flags: flags,
		Usage: "rm <names...> [-f]",
		Short: "Remove user-defined components from the database",
		Exec: func(o *IO, db *electrolyte.Database, args []string) error {
			if len(args) == 0 {
				return errors.New("at least one component name is required")
			}

			force, _ := flags.GetBool("force")

			return runRm(o, db, args, force)
		},
	}
}

func runRm(o *IO, db *electrolyte.Database, names []string, force bool) error {
	errorsOccurred := false

	// One lock scope for the whole batch: a single fresh read, and the
	// names that did remove persist in a single write even when others
	// fail.
	err := db.WithLock(func() error {
		for _, name := range names {
			upper := strings.ToUpper(name)

			err := db.Remove(upper)

			switch {
			case err == nil:

			case errors.Is(err, electrolyte.ErrNotFound):
				if !force {
					o.Errorf("%s: no such component", upper)

					errorsOccurred = true
				}

			case errors.Is(err, electrolyte.ErrDefaultComponent):
				o.Errorf("%v", err)

				errorsOccurred = true

			default:
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if errorsOccurred {
		return errReported
	}

	return nil
}
