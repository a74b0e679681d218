package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"redub/internal/preflight"
)

const statusLabelWidth = 24

// statusPrinter writes check results as aligned "label: [OK] detail" lines,
// coloured when the writer is a terminal.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) statusPrinter {
	return statusPrinter{out: out, color: isTerminal(out)}
}

func (p statusPrinter) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	p.line(text.Colors{text.FgBlue}, heading)
	p.line(text.Colors{text.FgBlue}, strings.Repeat("-", len(heading)))
}

func (p statusPrinter) result(r preflight.Result) {
	status, colors := "[OK]", text.Colors{text.FgGreen}
	if !r.Passed {
		status, colors = "[ERROR]", text.Colors{text.FgRed}
	}
	if r.Detail != "" {
		status += " " + r.Detail
	}
	p.line(colors, fmt.Sprintf("  %-*s %s", statusLabelWidth, r.Name+":", status))
}

func (p statusPrinter) line(colors text.Colors, s string) {
	if p.color {
		s = colors.Sprint(s)
	}
	fmt.Fprintln(p.out, s)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
