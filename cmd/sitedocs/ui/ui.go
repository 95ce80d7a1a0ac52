// Package ui renders sitedocs command output.
package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	sectionColor = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	mutedColor   = color.New(color.Faint)
)

// Init applies the global colour setting.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Printer writes formatted output to one writer.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Section(title string) {
	sectionColor.Fprintln(p.w, title)
	fmt.Fprintln(p.w, strings.Repeat("─", len([]rune(title))))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Success(format string, args ...any) {
	successColor.Fprintf(p.w, "✓ "+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...any) {
	warnColor.Fprintf(p.w, "! "+format+"\n", args...)
}

func (p *Printer) Fail(format string, args ...any) {
	failColor.Fprintf(p.w, "✗ "+format+"\n", args...)
}

func (p *Printer) Muted(format string, args ...any) {
	mutedColor.Fprintf(p.w, format+"\n", args...)
}

// Table prints rows aligned under headers.
func (p *Printer) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	separator := make([]string, len(headers))
	for i, h := range headers {
		separator[i] = strings.Repeat("-", len([]rune(h)))
	}
	fmt.Fprintln(tw, strings.Join(separator, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// Paint colours s with c unless colour output is disabled.
func Paint(c *color.Color, s string) string {
	return c.Sprint(s)
}

var (
	Yellow = color.New(color.FgYellow)
	Cyan   = color.New(color.FgCyan)
)
