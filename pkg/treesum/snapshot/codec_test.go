package snapshot_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
)

func sampleTree() *snapshot.Contents {
	root := snapshot.New()
	root.AddFile([]string{"a", "b"}, d1)
	root.AddFile([]string{"z"}, d2)
	root.AddDir([]string{"empty"})
	return root
}

func TestJSONShape(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(sampleTree())
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":"aa11"},"empty":{},"z":"bb22"}`, string(out))
}

func TestYAMLShape(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(sampleTree())
	require.NoError(t, err)
	assert.Equal(t, "a:\n    b: aa11\nempty: {}\nz: bb22\n", string(out))
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	tree := sampleTree()
	tree.AddFilePath("nums/only", digest.MustParse("1234"))
	tree.AddFilePath("nums/exp", digest.MustParse("1e10"))

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, err := json.Marshal(tree)
		require.NoError(t, err)

		back := snapshot.New()
		require.NoError(t, json.Unmarshal(out, back))
		assert.True(t, tree.Equal(back))
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		out, err := yaml.Marshal(tree)
		require.NoError(t, err)

		back := snapshot.New()
		require.NoError(t, yaml.Unmarshal(out, back))
		assert.True(t, tree.Equal(back))
	})
}

func TestDecodeInfersVariantFromShape(t *testing.T) {
	t.Parallel()

	var leaf snapshot.Node
	require.NoError(t, json.Unmarshal([]byte(`"aa11"`), &leaf))
	assert.Equal(t, snapshot.KindLeaf, leaf.Kind())

	var dir snapshot.Node
	require.NoError(t, json.Unmarshal([]byte(`{"x":"aa11"}`), &dir))
	assert.Equal(t, snapshot.KindDirectory, dir.Kind())

	var ydir snapshot.Node
	require.NoError(t, yaml.Unmarshal([]byte("x: aa11\n"), &ydir))
	assert.True(t, ydir.IsDir())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		json     string
		wantPath string
		wantHex  bool
	}{
		{name: "bad hex leaf", json: `{"a":"xyz"}`, wantPath: "a", wantHex: true},
		{name: "odd length leaf", json: `{"a":{"b":"abc"}}`, wantPath: "a/b", wantHex: true},
		{name: "number", json: `{"a":5}`, wantPath: "a"},
		{name: "array", json: `{"a":["aa11"]}`, wantPath: "a"},
		{name: "null child", json: `{"a":null}`, wantPath: "a"},
		{name: "separator in key", json: `{"a/b":"aa11"}`, wantPath: "a/b"},
		{name: "top level scalar", json: `"aa11"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var root snapshot.Contents
			err := json.Unmarshal([]byte(tt.json), &root)
			require.Error(t, err)

			var me *snapshot.MalformedError
			require.True(t, errors.As(err, &me), "got %T: %v", err, err)
			assert.Equal(t, tt.wantPath, me.Path)
			assert.Equal(t, tt.wantHex, errors.Is(err, digest.ErrInvalidHex))
		})
	}
}

func TestYAMLDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "bad hex", doc: "a: nothex\n", wantErr: digest.ErrInvalidHex},
		{name: "null", doc: "a: ~\n", wantErr: snapshot.ErrUnknownShape},
		{name: "sequence", doc: "a:\n  - aa11\n", wantErr: snapshot.ErrUnknownShape},
		{name: "top level scalar", doc: "aa11\n", wantErr: snapshot.ErrUnknownShape},
		{name: "self-referencing anchor", doc: "a: &a {x: *a}\n", wantErr: snapshot.ErrAlias},
		{name: "alias chain", doc: aliasChain(30), wantErr: snapshot.ErrAlias},
		{name: "merge key", doc: "base: &b {x: aa11}\nd:\n  <<: *b\n", wantErr: snapshot.ErrAlias},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var root snapshot.Contents
			err := yaml.Unmarshal([]byte(tt.doc), &root)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var me *snapshot.MalformedError
			assert.True(t, errors.As(err, &me))
		})
	}
}

// aliasChain builds a document where every level aliases the previous one
// twice, so expanding it would double in size per level.
func aliasChain(depth int) string {
	var b strings.Builder
	b.WriteString("l0: &l0 {x: aa11, y: aa11}\n")
	for i := 1; i <= depth; i++ {
		fmt.Fprintf(&b, "l%d: &l%d {p: *l%d, q: *l%d}\n", i, i, i-1, i-1)
	}
	return b.String()
}

func TestDecodeRejectsDuplicateKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		decode   func(string, *snapshot.Contents) error
		doc      string
		wantPath string
	}{
		{
			name:     "json top level",
			decode:   func(doc string, c *snapshot.Contents) error { return json.Unmarshal([]byte(doc), c) },
			doc:      `{"a":"aa11","a":"bb22"}`,
			wantPath: "a",
		},
		{
			name:     "json nested",
			decode:   func(doc string, c *snapshot.Contents) error { return json.Unmarshal([]byte(doc), c) },
			doc:      `{"d":{"x":"aa11","x":{}}}`,
			wantPath: "d/x",
		},
		{
			name:     "yaml nested",
			decode:   func(doc string, c *snapshot.Contents) error { return yaml.Unmarshal([]byte(doc), c) },
			doc:      "d:\n  x: aa11\n  x: bb22\n",
			wantPath: "d/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var root snapshot.Contents
			err := tt.decode(tt.doc, &root)
			require.Error(t, err)
			assert.ErrorIs(t, err, snapshot.ErrDuplicateKey)

			var me *snapshot.MalformedError
			require.True(t, errors.As(err, &me), "got %T: %v", err, err)
			assert.Equal(t, tt.wantPath, me.Path)
		})
	}
}

func TestEmptyTreeEncoding(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(snapshot.New())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	var zero snapshot.Contents
	out, err = yaml.Marshal(&zero)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(out))
}
