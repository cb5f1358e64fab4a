package cli

import (
	"bufio"
	"fmt"
	"io"
)

// IO carries the command's streams plus two capabilities detected at
// startup: whether stdin is an interactive terminal (drives the liner
// prompt in Confirm) and whether stdout is one (drives the bold
// highlighting in search).
type IO struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	interactive bool
	color       bool
}

// NewIO creates an IO over the given streams.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	return &IO{in: in, out: out, errOut: errOut}
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Errorf reports a non-fatal per-item error to stderr. Callers track
// that one occurred and exit non-zero at the end.
func (o *IO) Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.errOut, "error: "+format+"\n", a...)
}

// Bold wraps s in ANSI bold when stdout is a terminal.
func (o *IO) Bold(s string) string {
	if !o.color {
		return s
	}

	return "\x1b[1m" + s + "\x1b[0m"
}

// readLine reads one line from stdin, without the trailing newline.
// A nil stdin reads as immediate EOF.
func (o *IO) readLine() (string, error) {
	if o.in == nil {
		return "", io.EOF
	}

	reader := bufio.NewReader(o.in)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return line, nil
}
