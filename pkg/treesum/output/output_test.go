package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

func sampleResult() *Result {
	tree := snapshot.New()
	tree.AddFilePath("src/main.go", digest.MustParse("aa11"))
	tree.AddFilePath("src/util/helpers.go", digest.MustParse("bb22"))
	tree.AddDirPath("empty")
	tree.AddFilePath("README.md", digest.MustParse("0123456789abcdef0123"))

	return &Result{
		Source:    "/home/user/project",
		Algorithm: "blake3",
		Tree:      tree,
		Stats: types.ScanStats{
			Dirs:        3,
			Files:       3,
			Bytes:       2048,
			BytesHashed: 1024,
			CacheHits:   1,
			Elapsed:     1500 * time.Millisecond,
		},
	}
}

func render(t *testing.T, name string, r *Result) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "yaml"}, Available())

	_, err := Get("xml")
	assert.Error(t, err)

	r := NewRegistry()
	r.Register("x", func() Formatter { return &PlainFormatter{} })
	f, err := r.Get("x")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)
}

func TestYAMLFormatterWritesTreeOnly(t *testing.T) {
	got := render(t, "yaml", sampleResult())

	want := strings.Join([]string{
		"README.md: 0123456789abcdef0123",
		"empty: {}",
		"src:",
		"  main.go: aa11",
		"  util:",
		"    helpers.go: bb22",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestJSONFormatterWritesTreeOnly(t *testing.T) {
	got := render(t, "json", sampleResult())

	want := strings.Join([]string{
		"{",
		`  "README.md": "0123456789abcdef0123",`,
		`  "empty": {},`,
		`  "src": {`,
		`    "main.go": "aa11",`,
		`    "util": {`,
		`      "helpers.go": "bb22"`,
		"    }",
		"  }",
		"}",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestEmptyTree(t *testing.T) {
	r := &Result{Source: "/x"}
	assert.Equal(t, "{}\n", render(t, "yaml", r))
	assert.Equal(t, "{}\n", render(t, "json", r))
	assert.Empty(t, render(t, "plain", r))
	assert.Contains(t, render(t, "pretty", r), "(empty)")
}

func TestPlainFormatter(t *testing.T) {
	got := render(t, "plain", sampleResult())

	want := "0123456789abcdef0123  README.md\n" +
		"aa11  src/main.go\n" +
		"bb22  src/util/helpers.go\n"
	assert.Equal(t, want, got)
}

func TestPlainFormatterEscapesNames(t *testing.T) {
	tree := snapshot.New()
	tree.AddFile([]string{"dir", "two\nlines.txt"}, digest.MustParse("aa11"))
	tree.AddFile([]string{`back\slash`}, digest.MustParse("bb22"))
	tree.AddFile([]string{"plain.txt"}, digest.MustParse("cc33"))

	got := render(t, "plain", &Result{Tree: tree})

	want := `\bb22  back\\slash` + "\n" +
		`\aa11  dir/two\nlines.txt` + "\n" +
		"cc33  plain.txt\n"
	assert.Equal(t, want, got)
	assert.Equal(t, 3, strings.Count(got, "\n"), "one line per file")
}

func TestPrettyFormatter(t *testing.T) {
	r := sampleResult()
	r.Interrupted = true
	r.Errors = []types.ScanError{{Path: "/home/user/project/secret", Error: "permission denied"}}

	got := render(t, "pretty", r)

	assert.Contains(t, got, "/home/user/project")
	assert.Contains(t, got, "blake3")
	assert.Contains(t, got, "src/")
	assert.Contains(t, got, "helpers.go")
	assert.Contains(t, got, "0123456789ab")
	assert.NotContains(t, got, "0123456789abcdef0123", "digests are abbreviated")
	assert.Contains(t, got, "2.0 KiB")
	assert.Contains(t, got, "interrupted")
	assert.Contains(t, got, "permission denied")
}

func TestReadTreeRoundTrip(t *testing.T) {
	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			doc := render(t, format, sampleResult())

			tree, err := ReadTree(strings.NewReader(doc), format)
			require.NoError(t, err)
			assert.True(t, sampleResult().Tree.Equal(tree))

			sniffed, err := ReadTree(strings.NewReader("\n  "+doc), "")
			require.NoError(t, err)
			assert.True(t, tree.Equal(sniffed))
		})
	}
}

func TestReadTreeErrors(t *testing.T) {
	_, err := ReadTree(strings.NewReader(""), "yaml")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ReadTree(strings.NewReader(""), "json")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ReadTree(strings.NewReader("a: {}"), "toml")
	assert.Error(t, err)

	for _, doc := range []string{`{"a":"aa11"} trailing`, `{"a":"aa11"}{"b":"bb22"}`} {
		_, err = ReadTree(strings.NewReader(doc), "")
		assert.ErrorIs(t, err, ErrTrailingData, doc)
	}
	_, err = ReadTree(strings.NewReader("{\"a\":\"aa11\"}\n\n"), "json")
	assert.NoError(t, err, "trailing whitespace is fine")

	_, err = ReadTree(strings.NewReader("a: &a {x: *a}\n"), "yaml")
	assert.ErrorIs(t, err, snapshot.ErrAlias)

	_, err = ReadTree(strings.NewReader("a:\n  b: zz\n"), "yaml")
	var malformed *snapshot.MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "a/b", malformed.Path)
	assert.ErrorIs(t, err, digest.ErrInvalidHex)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"snap.json": "json",
		"snap.YAML": "yaml",
		"snap.yml":  "yaml",
		"snap.txt":  "",
		"snap":      "",
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}
