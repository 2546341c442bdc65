package cmdutils

import (
	"fmt"
	"io"
	"strings"
)

const logo = "📈"

// PrintResponse writes an assistant reply to w under a chartchat header.
func PrintResponse(w io.Writer, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	fmt.Fprintf(w, "\n%s chartchat\n%s\n\n", logo, text)
}

// PrintProgress writes a one-line progress note, indented under the prompt.
func PrintProgress(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  ↳ "+format+"\n", args...)
}

// PrintError writes a failed turn as "✗ <kind>: <message>".
func PrintError(w io.Writer, kind string, err error) {
	fmt.Fprintf(w, "✗ %s: %v\n", kind, err)
}
