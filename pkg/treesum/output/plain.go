package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
)

// PlainFormatter writes one "<digest>  <path>" line per file, in the
// layout of sha256sum, for piping to grep, sort and diff.
//
// As in coreutils, a path containing a backslash, newline or carriage
// return is escaped and its line starts with a backslash, so every file
// stays on exactly one line.
type PlainFormatter struct{}

var pathEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	return r.tree().Walk(func(path []string, n *snapshot.Node) error {
		if !n.IsLeaf() {
			return nil
		}
		_, err := fmt.Fprintln(w, plainLine(n.Digest().String(), strings.Join(path, "/")))
		return err
	})
}

func plainLine(hex, path string) string {
	if !strings.ContainsAny(path, "\\\n\r") {
		return hex + "  " + path
	}
	return `\` + hex + "  " + pathEscaper.Replace(path)
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
