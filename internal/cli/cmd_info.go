package cli

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"electrolytes/internal/electrolyte"
)

// infoColumnWidth is the width of one charge column in the detail view.
const infoColumnWidth = 8

func infoCommand() *Command {
	flags := flag.NewFlagSet("info", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "info [names...]",
		Short: "Show the properties of components",
		Long: `Show the properties of components.

If no names are given, print the number of components in the database.`,
		Exec: runInfo,
	}
}

func runInfo(o *IO, db *electrolyte.Database, args []string) error {
	if len(args) == 0 {
		return printCounts(o, db)
	}

	first := true
	errorsOccurred := false

	for _, name := range args {
		upper := strings.ToUpper(name)

		constituent, err := db.Get(upper)
		if err != nil {
			o.Errorf("%s: no such component", upper)

			errorsOccurred = true

			continue
		}

		if !first {
			o.Println()
		}

		userDefined, err := db.IsUserDefined(upper)
		if err != nil {
			return err
		}

		printConstituent(o, constituent, userDefined)

		first = false
	}

	if errorsOccurred {
		return errReported
	}

	return nil
}

func printCounts(o *IO, db *electrolyte.Database) error {
	total, err := db.Len()
	if err != nil {
		return err
	}

	userNames, err := db.UserDefinedNames()
	if err != nil {
		return err
	}

	user := len(userNames)

	o.Printf("%d components stored in the database (%d default, %d user-defined)\n",
		total, total-user, user)

	return nil
}

// printConstituent renders the detail block: a charge header row over
// aligned mobility and pKa columns, most positive charge first.
func printConstituent(o *IO, c *electrolyte.Constituent, userDefined bool) {
	charges := make([]string, 0, c.PosCount()+c.NegCount())
	mobilities := make([]string, 0, cap(charges))
	pkas := make([]string, 0, cap(charges))

	appendColumn := func(charge int, u, pka float64) {
		charges = append(charges, center(fmt.Sprintf("%+d", charge), infoColumnWidth))
		mobilities = append(mobilities, center(fmt.Sprintf("%.2f", u), infoColumnWidth))
		pkas = append(pkas, center(fmt.Sprintf("%.2f", pka), infoColumnWidth))
	}

	for i := c.PosCount() - 1; i >= 0; i-- {
		appendColumn(i+1, c.UPos[i], c.PKaPos[i])
	}

	for i := c.NegCount() - 1; i >= 0; i-- {
		appendColumn(i-c.NegCount(), c.UNeg[i], c.PKaNeg[i])
	}

	o.Println("Component:", c.Name)

	if userDefined {
		o.Println("[user-defined]")
	}

	o.Println("                    " + strings.Join(charges, " "))
	o.Println("Mobilities (*1e-9): " + strings.Join(mobilities, " "))
	o.Println("pKas:               " + strings.Join(pkas, " "))
	o.Printf("Diffusivity: %.4e\n", c.Diffusivity())
}

// center pads s with spaces to width, favoring the right side.
func center(s string, width int) string {
	if len(s) >= width {
		return s
	}

	left := (width - len(s)) / 2
	right := width - len(s) - left

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
