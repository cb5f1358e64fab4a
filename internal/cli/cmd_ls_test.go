package cli_test

import (
	"slices"
	"strings"
	"testing"

	"electrolytes/internal/cli"
)

func Test_Ls_Prints_Sorted_Names(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("ls")
	names := strings.Split(stdout, "\n")

	if len(names) < 2 {
		t.Fatalf("ls printed %d names, want the bundled dataset", len(names))
	}

	if !slices.IsSorted(names) {
		t.Errorf("ls output not sorted:\n%s", stdout)
	}

	cli.AssertContains(t, stdout, "CYSTINE")
	cli.AssertContains(t, stdout, "SODIUM")
}

func Test_Ls_Filters_By_Layer(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("add", "MYACID", "-1", "30", "4.5")

	all := c.MustRun("ls")
	cli.AssertContains(t, all, "MYACID")
	cli.AssertContains(t, all, "CYSTINE")

	userOnly := c.MustRun("ls", "--user")
	if userOnly != "MYACID" {
		t.Errorf("ls --user = %q, want only MYACID", userOnly)
	}

	defaultOnly := c.MustRun("ls", "--default")
	cli.AssertContains(t, defaultOnly, "CYSTINE")
	cli.AssertNotContains(t, defaultOnly, "MYACID")
}

func Test_Ls_Rejects_Conflicting_Filters(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stderr := c.MustFail("ls", "--user", "--default")
	cli.AssertContains(t, stderr, "mutually exclusive")
}

func Test_Ls_Rejects_Positional_Arguments(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stderr := c.MustFail("ls", "extra")
	cli.AssertContains(t, stderr, "unexpected argument: extra")
}
