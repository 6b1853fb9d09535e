package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// printer writes command output, colored when w is a terminal.
type printer struct {
	w io.Writer

	ok, bad, dim, ins, del *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:   w,
		ok:  color.New(color.FgGreen),
		bad: color.New(color.FgRed),
		dim: color.New(color.Faint),
		ins: color.New(color.FgGreen, color.Underline),
		del: color.New(color.FgRed, color.CrossedOut),
	}
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, c := range []*color.Color{p.ok, p.bad, p.dim, p.ins, p.del} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

func (p *printer) label(c *color.Color, label, s string) {
	fmt.Fprintf(p.w, "%s %s\n", c.Sprint(label), s)
}

// diff prints the character diff from prev to cur on one line.
func (p *printer) diff(label, prev, cur string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(prev, cur, false))

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(p.ins.Sprint("{+" + d.Text + "+}"))
		case diffmatchpatch.DiffDelete:
			sb.WriteString(p.del.Sprint("[-" + d.Text + "-]"))
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		}
	}
	p.label(p.dim, label, sb.String())
}
