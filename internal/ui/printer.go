package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes UI components to a writer. Commands use it so tests can
// capture output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer for w. A nil w selects os.Stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the rendering width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintFailure prints a failure box with the user-facing message, the
// operator detail and hints
func (p *Printer) PrintFailure(title, message string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, message, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintDetails prints aligned key/value lines without a box
func (p *Printer) PrintDetails(details []Detail) {
	r := &Result{Details: details}
	for _, line := range r.detailLines() {
		p.Println(line)
	}
}
