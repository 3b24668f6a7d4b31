package message

import (
	"fmt"
	"strings"
)

// ScriptError is the error payload a view sends with the webviewError command.
type ScriptError struct {
	Message string `json:"message"`
	Source  string `json:"source"`
	Lineno  int    `json:"lineno"`
	Colno   int    `json:"colno"`
	Stack   string `json:"stack,omitempty"`
}

// Format renders the error for logging as
// "<context> script error[ at line L:C][ (source)]: message".
// The location is omitted when Lineno <= 0 and the source when it is empty
// or "unknown".
func (e ScriptError) Format(context string) string {
	var b strings.Builder
	b.WriteString(context)
	b.WriteString(" script error")
	if e.Lineno > 0 {
		fmt.Fprintf(&b, " at line %d:%d", e.Lineno, e.Colno)
	}
	if e.Source != "" && e.Source != "unknown" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}
