package snapshot_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
)

var (
	d1 = digest.MustParse("aa11")
	d2 = digest.MustParse("bb22")
)

func TestEmptyPathIsNoop(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile(nil, d1)
	root.AddDir([]string{})
	root.AddFilePath("", d1)
	root.AddDirPath(".")

	assert.Equal(t, 0, root.Len())
}

func TestInsertTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	once := snapshot.New()
	once.AddFile([]string{"a", "b"}, d1)

	twice := snapshot.New()
	twice.AddFile([]string{"a", "b"}, d1)
	twice.AddFile([]string{"a", "b"}, d1)

	assert.True(t, once.Equal(twice))
}

func TestDeepPathMaterialization(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile([]string{"a", "b", "c"}, d1)

	require.Equal(t, []string{"a"}, root.Names())

	a, ok := root.Child("a")
	require.True(t, ok)
	require.True(t, a.IsDir())
	require.Equal(t, []string{"b"}, a.Contents().Names())

	b, ok := a.Contents().Child("b")
	require.True(t, ok)
	require.True(t, b.IsDir())
	require.Equal(t, []string{"c"}, b.Contents().Names())

	c, ok := b.Contents().Child("c")
	require.True(t, ok)
	require.True(t, c.IsLeaf())
	assert.True(t, d1.Equal(c.Digest()))

	assert.Equal(t, snapshot.Stats{Files: 1, Dirs: 2}, root.Stats())
}

func TestDirectoryMarkerIsNonDestructive(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile([]string{"a", "x"}, d1)
	root.AddDir([]string{"a"})

	x, ok := root.Get([]string{"a", "x"})
	require.True(t, ok)
	assert.True(t, d1.Equal(x.Digest()))
}

func TestDirectoryMarkerOverLeafIsNoop(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile([]string{"a"}, d1)
	root.AddDir([]string{"a"})

	a, ok := root.Get([]string{"a"})
	require.True(t, ok)
	assert.True(t, a.IsLeaf())
}

func TestLeafReplacesDirectory(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddDir([]string{"a", "b"})
	root.AddFile([]string{"a"}, d1)

	a, ok := root.Get([]string{"a"})
	require.True(t, ok)
	require.True(t, a.IsLeaf())
	assert.True(t, d1.Equal(a.Digest()))

	_, ok = root.Get([]string{"a", "b"})
	assert.False(t, ok)
}

func TestSiblingsAreIndependent(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile([]string{"a"}, d1)
	root.AddFile([]string{"b"}, d2)

	assert.Equal(t, []string{"a", "b"}, root.Names())

	a, _ := root.Get([]string{"a"})
	b, _ := root.Get([]string{"b"})
	assert.True(t, d1.Equal(a.Digest()))
	assert.True(t, d2.Equal(b.Digest()))
}

func TestDeepInsertThroughExistingDirectoryPreservesContents(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile([]string{"a", "x"}, d1)
	root.AddFile([]string{"a", "sub", "y"}, d2)

	x, ok := root.Get([]string{"a", "x"})
	require.True(t, ok)
	assert.True(t, d1.Equal(x.Digest()))

	y, ok := root.Get([]string{"a", "sub", "y"})
	require.True(t, ok)
	assert.True(t, d2.Equal(y.Digest()))
}

func TestDeepInsertThroughLeafReplacesIt(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFile([]string{"a"}, d1)
	root.AddFile([]string{"a", "b"}, d2)

	a, ok := root.Get([]string{"a"})
	require.True(t, ok)
	require.True(t, a.IsDir())

	b, ok := root.Get([]string{"a", "b"})
	require.True(t, ok)
	assert.True(t, d2.Equal(b.Digest()))
}

func TestInsertionOrderDoesNotMatter(t *testing.T) {
	t.Parallel()

	type event struct {
		path []string
		dir  bool
		d    digest.Digest
	}
	events := []event{
		{path: []string{"src"}, dir: true},
		{path: []string{"src", "main.go"}, d: d1},
		{path: []string{"src", "pkg"}, dir: true},
		{path: []string{"src", "pkg", "lib.go"}, d: d2},
		{path: []string{"empty"}, dir: true},
	}

	build := func(order []int) *snapshot.Contents {
		root := snapshot.New()
		for _, i := range order {
			e := events[i]
			if e.dir {
				root.AddDir(e.path)
			} else {
				root.AddFile(e.path, e.d)
			}
		}
		return root
	}

	want := build([]int{0, 1, 2, 3, 4})
	for _, order := range [][]int{
		{4, 3, 2, 1, 0},
		{3, 1, 0, 4, 2},
		{1, 3, 4, 2, 0},
	} {
		assert.True(t, want.Equal(build(order)), "order %v", order)
	}

	empty, ok := want.Get([]string{"empty"})
	require.True(t, ok)
	assert.True(t, empty.IsDir())
	assert.Equal(t, 0, empty.Contents().Len())
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{in: "a/b/c", want: []string{"a", "b", "c"}},
		{in: "./a//b/", want: []string{"a", "b"}},
		{in: "", want: []string{}},
		{in: ".", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, snapshot.SplitPath(tt.in))
		})
	}
}

func TestWalkOrderAndStop(t *testing.T) {
	t.Parallel()

	root := snapshot.New()
	root.AddFilePath("b/2", d2)
	root.AddFilePath("a/1", d1)
	root.AddDirPath("c")

	var visited []string
	require.NoError(t, root.Walk(func(path []string, _ *snapshot.Node) error {
		visited = append(visited, strings.Join(path, "/"))
		return nil
	}))
	assert.Equal(t, []string{"a", "a/1", "b", "b/2", "c"}, visited)

	stop := errors.New("stop")
	count := 0
	err := root.Walk(func(_ []string, _ *snapshot.Node) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestZeroValueContentsIsUsable(t *testing.T) {
	t.Parallel()

	var root snapshot.Contents
	root.AddFile([]string{"f"}, d1)
	assert.Equal(t, 1, root.Len())
}
