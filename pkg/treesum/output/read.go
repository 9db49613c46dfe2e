package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
)

// Errors returned by ReadTree.
var (
	// ErrEmptyDocument is returned for input with no document.
	ErrEmptyDocument = errors.New("empty snapshot document")

	// ErrTrailingData is returned when anything but whitespace follows a
	// json document.
	ErrTrailingData = errors.New("unexpected data after snapshot document")
)

// FormatFromPath guesses a document format from a file extension. It
// returns "" when the extension is not recognized.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// ReadTree decodes a yaml or json tree document. An empty format sniffs
// the first non-space byte: '{' is json, anything else yaml.
func ReadTree(r io.Reader, format string) (*snapshot.Contents, error) {
	br := bufio.NewReader(r)

	if format == "" {
		format = sniff(br)
	}

	tree := snapshot.New()
	switch format {
	case "json":
		dec := json.NewDecoder(br)
		if err := dec.Decode(tree); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyDocument
			}
			return nil, fmt.Errorf("decoding json snapshot: %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding json snapshot: %w", ErrTrailingData)
		}
	case "yaml":
		dec := yaml.NewDecoder(br)
		if err := dec.Decode(tree); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyDocument
			}
			return nil, fmt.Errorf("decoding yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("cannot read %q documents, use yaml or json", format)
	}

	return tree, nil
}

func sniff(br *bufio.Reader) string {
	for i := 1; ; i++ {
		peek, err := br.Peek(i)
		if len(peek) < i {
			return "yaml"
		}
		c := peek[i-1]
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(c)) {
			if c == '{' {
				return "json"
			}
			return "yaml"
		}
		if err != nil {
			return "yaml"
		}
	}
}
