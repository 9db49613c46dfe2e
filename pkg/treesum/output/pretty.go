package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
)

// shortDigestLen is how many hex characters the tree view shows.
const shortDigestLen = 12

// PrettyFormatter renders a styled summary and an indented tree for the
// terminal.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatTree(r.tree()))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Errors) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r))
	}

	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	lines := []string{
		LabelStyle.Render("Source:") + " " + ValueStyle.Render(r.Source),
		LabelStyle.Render("Algorithm:") + " " + ValueStyle.Render(r.Algorithm) + "  " +
			LabelStyle.Render("Scanned:") + " " +
			ValueStyle.Render(fmt.Sprintf("%d files in %s", r.Stats.Files, formatDuration(r.Stats.Elapsed))),
	}

	if r.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Scan interrupted, tree is incomplete"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTree(tree *snapshot.Contents) string {
	if tree.Len() == 0 {
		return MutedStyle.Render("  (empty)") + "\n"
	}

	var sb strings.Builder
	_ = tree.Walk(func(path []string, n *snapshot.Node) error {
		indent := strings.Repeat("  ", len(path))
		name := path[len(path)-1]
		if n.IsDir() {
			sb.WriteString(indent + DirStyle.Render(name+"/") + "\n")
			return nil
		}
		sb.WriteString(indent + FileStyle.Render(name) + "  " + DigestStyle.Render(abbrev(n.Digest().String())) + "\n")
		return nil
	})
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		LabelStyle.Render("Files:") + " " + ValueStyle.Render(humanize.Comma(r.Stats.Files)),
		LabelStyle.Render("Dirs:") + " " + ValueStyle.Render(humanize.Comma(r.Stats.Dirs)),
		LabelStyle.Render("Total:") + " " + ValueStyle.Render(humanize.IBytes(uint64(max(r.Stats.Bytes, 0)))),
		LabelStyle.Render("Read:") + " " + ValueStyle.Render(humanize.IBytes(uint64(max(r.Stats.BytesHashed, 0)))),
	}
	if r.Stats.CacheHits > 0 {
		parts = append(parts, LabelStyle.Render("Cached:")+" "+ValueStyle.Render(humanize.Comma(r.Stats.CacheHits)))
	}
	if r.Stats.Ignored > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("%d ignored", r.Stats.Ignored)))
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(r *Result) string {
	var sb strings.Builder

	sb.WriteString(WarningStyle.Bold(true).Render(fmt.Sprintf("Skipped %d entries:", len(r.Errors))))
	sb.WriteString("\n")
	for _, e := range r.Errors {
		sb.WriteString(WarningStyle.Render("  " + e.Path + ": " + e.Error))
		sb.WriteString("\n")
	}

	return sb.String()
}

func abbrev(hex string) string {
	if len(hex) <= shortDigestLen {
		return hex
	}
	return hex[:shortDigestLen]
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
