package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{" _                    _            _   ", "#818cf8"},
	{"| |__   ___  __ _  __| |_ __   ___| |_ ", "#a78bfa"},
	{"| '_ \\ / _ \\/ _` |/ _` | '_ \\ / _ \\ __|", "#c084fc"},
	{"| |_) |  __/ (_| | (_| | | | |  __/ |_ ", "#e879f9"},
	{"|_.__/ \\___|\\__,_|\\__,_|_| |_|\\___|\\__|", "#f472b6"},
}

// PrintBanner writes the beadnet banner and version to w, colored when the
// terminal supports it.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
