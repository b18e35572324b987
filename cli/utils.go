package cli

import (
	"fmt"
	"io"
)

// printf writes a line to w. Write errors are ignored.
func printf(w io.Writer, format string, a ...interface{}) {
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}
