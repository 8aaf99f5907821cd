package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/driver"
	"github.com/teness/tessc/internal/source"
)

var (
	colorError = lipgloss.Color("#EF4444")
	colorMuted = lipgloss.Color("#6B7280")

	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	excerptStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// renderError writes err to w. Diagnostics get a styled category and, when
// f is known, the offending source line.
func renderError(w io.Writer, err error, f *source.File) {
	d, ok := diag.As(err)
	if !ok {
		fmt.Fprintf(w, "%s %v\n", categoryStyle.Render("error:"), err)
		return
	}
	line := d.Error()
	fmt.Fprintf(w, "%s%s\n", categoryStyle.Render(d.Category.String()), strings.TrimPrefix(line, d.Category.String()))
	if f == nil {
		f = loadSource(d)
	}
	if ex := diag.Excerpt(d, f); ex != "" {
		for _, l := range strings.Split(ex, "\n") {
			fmt.Fprintln(w, "  "+excerptStyle.Render(l))
		}
	}
}

func loadSource(d *diag.Error) *source.File {
	if d.Pos.Filename == "" {
		return nil
	}
	f, err := driver.ReadFile(d.Pos.Filename)
	if err != nil {
		return nil
	}
	return f
}
