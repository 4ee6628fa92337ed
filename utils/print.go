package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	keyColor   = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
)

// PrettyPrint prints the given values as indented JSON.
func PrettyPrint(v ...interface{}) {
	Fprint(os.Stdout, v...)
}

// Fprint writes the given values as indented JSON to w.
func Fprint(w io.Writer, v ...interface{}) {
	for _, i := range v {
		b, err := json.MarshalIndent(i, "", "  ")
		if err != nil {
			errorColor.Fprintln(w, err)
			return
		}
		fmt.Fprintln(w, string(b))
	}
}

// PrintField prints a highlighted key and its value.
func PrintField(w io.Writer, key string, value interface{}) {
	keyColor.Fprintf(w, "%s: ", key)
	fmt.Fprintln(w, value)
}

// PrintOK prints a success message.
func PrintOK(w io.Writer, format string, args ...interface{}) {
	okColor.Fprintf(w, format+"\n", args...)
}

// PrintError prints an error message.
func PrintError(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, format+"\n", args...)
}
