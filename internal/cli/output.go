package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	warningColor.Fprintf(w, "! "+format+"\n", args...)
}

func printHeader(w io.Writer, text string) {
	headerColor.Fprintln(w, text)
}

func printDim(w io.Writer, format string, args ...interface{}) {
	dimColor.Fprintf(w, format+"\n", args...)
}

func printf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}
