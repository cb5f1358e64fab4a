package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"electrolytes/internal/electrolyte"
)

// maxCharge is the highest charge magnitude the add grammar accepts.
const maxCharge = 6

var errAborted = errors.New("aborted")

func addCommand() *Command {
	return &Command{
		Usage: "add <name> [+1 <u> <pKa>] ... [-6 <u> <pKa>] [-f]",
		Short: "Store a user-defined component in the database",
		Long: `Store a user-defined component in the database.

Each charge option (+1 .. +6, -1 .. -6) takes a mobility (*1e-9) and a
pKa. Charges must form a contiguous run from +1 or -1 outwards, and at
least one of +1 or -1 is required.

Flags:
  -f, --force   Do not prompt before replacing a user-defined component
                with the same name`,
		Exec: runAdd,
	}
}

// chargeEntry is one parsed +N/-N option.
type chargeEntry struct {
	mobility float64
	pka      float64
	set      bool
}

type addOptions struct {
	name  string
	neg   [maxCharge]chargeEntry // neg[i] holds charge -(i+1)
	pos   [maxCharge]chargeEntry // pos[i] holds charge +(i+1)
	force bool
}

func runAdd(o *IO, db *electrolyte.Database, args []string) error {
	opts, err := parseAddArgs(args)
	if err != nil {
		return err
	}

	name := strings.ToUpper(opts.name)

	if !opts.pos[0].set && !opts.neg[0].set {
		return errors.New("at least one of the +1 or -1 options is required")
	}

	uNeg, pkasNeg, err := collectCharges(opts.neg, "-")
	if err != nil {
		return err
	}

	// The negative side is stored most-negative-charge-first.
	reverse(uNeg)
	reverse(pkasNeg)

	uPos, pkasPos, err := collectCharges(opts.pos, "+")
	if err != nil {
		return err
	}

	constituent, err := electrolyte.New(electrolyte.Fields{
		Name:   name,
		UNeg:   uNeg,
		UPos:   uPos,
		PKaNeg: pkasNeg,
		PKaPos: pkasPos,
	})
	if err != nil {
		return err
	}

	// Replace flow: default names are untouchable, user names need
	// confirmation, and the remove+add pair persists as one write.
	err = db.WithLock(func() error {
		exists, err := db.ContainsName(name)
		if err != nil {
			return err
		}

		if exists {
			userDefined, err := db.IsUserDefined(name)
			if err != nil {
				return err
			}

			if !userDefined {
				return fmt.Errorf("%s: is a default component", name)
			}

			if !opts.force {
				replace, err := o.Confirm(fmt.Sprintf("Replace existing %s?", name))
				if err != nil {
					return err
				}

				if !replace {
					return errAborted
				}
			}

			if err := db.Remove(name); err != nil {
				return err
			}
		}

		return db.Add(constituent)
	})
	if errors.Is(err, errAborted) {
		return errors.New("Aborted")
	}

	return err
}

// parseAddArgs scans the argument list by hand: pflag cannot represent
// options named "+1" or "-1", and each charge option consumes exactly
// two numeric arguments.
func parseAddArgs(args []string) (addOptions, error) {
	var opts addOptions

	idx := 0
	for idx < len(args) {
		arg := args[idx]

		switch {
		case arg == "-f" || arg == "--force":
			opts.force = true
			idx++

		case isChargeOption(arg):
			sign := arg[0]
			charge := int(arg[1] - '0')

			if idx+2 >= len(args) {
				return addOptions{}, fmt.Errorf("option %s requires a mobility and a pKa", arg)
			}

			mobility, err := parseFloatArg(arg, "mobility", args[idx+1])
			if err != nil {
				return addOptions{}, err
			}

			pka, err := parseFloatArg(arg, "pKa", args[idx+2])
			if err != nil {
				return addOptions{}, err
			}

			entry := chargeEntry{mobility: mobility, pka: pka, set: true}
			if sign == '+' {
				opts.pos[charge-1] = entry
			} else {
				opts.neg[charge-1] = entry
			}

			idx += 3

		case strings.HasPrefix(arg, "-") && arg != "-":
			return addOptions{}, fmt.Errorf("unknown option: %s", arg)

		case opts.name == "":
			opts.name = arg
			idx++

		default:
			return addOptions{}, fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	if opts.name == "" {
		return addOptions{}, errors.New("component name is required")
	}

	return opts, nil
}

// isChargeOption matches exactly +1..+6 and -1..-6.
func isChargeOption(arg string) bool {
	if len(arg) != 2 || (arg[0] != '+' && arg[0] != '-') {
		return false
	}

	return arg[1] >= '1' && arg[1] <= '0'+maxCharge
}

func parseFloatArg(option, role, raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("option %s: invalid %s %q", option, role, raw)
	}

	return value, nil
}

// collectCharges gathers the supplied entries for one side, in charge
// magnitude order 1..6, rejecting gaps: once a charge is omitted every
// higher one must be omitted too.
func collectCharges(entries [maxCharge]chargeEntry, sign string) (mobilities, pkas []float64, err error) {
	firstOmitted := 0

	for i, entry := range entries {
		if !entry.set {
			if firstOmitted == 0 {
				firstOmitted = i + 1
			}

			continue
		}

		if firstOmitted != 0 {
			return nil, nil, fmt.Errorf("missing charge %s%d", sign, firstOmitted)
		}

		mobilities = append(mobilities, entry.mobility)
		pkas = append(pkas, entry.pka)
	}

	return mobilities, pkas, nil
}

func reverse(values []float64) {
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
}
