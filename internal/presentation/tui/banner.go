package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the callflow banner and a short server summary to w.
func PrintBanner(w io.Writer, version, addr, store string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	lines := []struct {
		text  string
		color string
	}{
		{"            _ _  __ _               ", "#818cf8"},
		{"   ___ __ _| | |/ _| | _____      __", "#a78bfa"},
		{"  / __/ _` | | | |_| |/ _ \\ \\ /\\ / /", "#c084fc"},
		{" | (_| (_| | | |  _| | (_) \\ V  V / ", "#e879f9"},
		{"  \\___\\__,_|_|_|_| |_|\\___/ \\_/\\_/  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)

	label := func(s string) termenv.Style { return out.String(s).Faint() }
	fmt.Fprintf(w, "  %s %s\n", label("version"), version)
	fmt.Fprintf(w, "  %s %s\n", label("listen "), addr)
	fmt.Fprintf(w, "  %s %s\n", label("store  "), store)
	fmt.Fprintln(w)
}
