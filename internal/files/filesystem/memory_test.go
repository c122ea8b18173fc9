package filesystem

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_WalkLexical(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("oesm20nat.zip", 10)
	mfs.AddFile("archive/oes99.zip", 20)
	mfs.AddFile("oesm03nat.zip", 30)

	dir, err := mfs.Open("/data")
	require.NoError(t, err)

	var files []string
	err = dir.Walk(func(file File, err error) error {
		require.NoError(t, err)
		if !file.Info().IsDir() {
			files = append(files, file.RelativePath())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"archive/oes99.zip", "oesm03nat.zip", "oesm20nat.zip"}, files)
}

func TestMemoryFileSystem_WalkSkipDir(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("skip/a.zip", 1)
	mfs.AddFile("b.zip", 1)

	dir, err := mfs.Open(".")
	require.NoError(t, err)

	var seen []string
	err = dir.Walk(func(file File, err error) error {
		if file.Info().IsDir() && file.Info().Name() == "skip" {
			return fs.SkipDir
		}
		if !file.Info().IsDir() {
			seen = append(seen, file.RelativePath())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.zip"}, seen)
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("z.zip", 1)
	mfs.AddFile("a.zip", 2)
	mfs.AddFile("sub/c.zip", 3)

	infos, err := mfs.ReadDir("/data")
	require.NoError(t, err)

	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	assert.Equal(t, []string{"a.zip", "sub", "z.zip"}, names)

	_, err = mfs.ReadDir("/missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_StatAndMkdirAll(t *testing.T) {
	mfs := NewMemoryFileSystem("/work")
	mfs.AddFile("data/oes.zip", 42)

	info, err := mfs.Stat("data/oes.zip")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, int64(42), info.Size())

	_, err = mfs.Stat("nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, mfs.MkdirAll("fresh/nested"))
	info, err = mfs.Stat("fresh/nested")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Error(t, mfs.MkdirAll("data/oes.zip"))
}

func TestMemoryFileSystem_OpenFileFails(t *testing.T) {
	mfs := NewMemoryFileSystem("/work")
	mfs.AddFile("oes.zip", 1)

	_, err := mfs.Open("oes.zip")
	assert.Error(t, err)
	_, err = mfs.Open("missing")
	assert.Error(t, err)
}
