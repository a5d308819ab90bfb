package scratch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/media-converter/common"
)

func newSpace(t *testing.T) *Space {
	root := t.TempDir()
	s, err := Init(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"))
	require.NoError(t, err)
	return s
}

func TestInitWipes(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "stale"), []byte("x"), 0644))

	s, err := Init(uploads, filepath.Join(root, "outputs"))
	require.NoError(t, err)
	entries, err := os.ReadDir(s.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInitRejectsSameDir(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, root)
	assert.Error(t, err)
}

func TestStageAndRelease(t *testing.T) {
	s := newSpace(t)
	staged, err := s.Stage(bytes.NewReader([]byte("hello")), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(5), staged.Size)

	b, err := staged.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, staged.Release())
	require.NoError(t, staged.Release())
	_, err = os.Stat(staged.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestStageTooLarge(t *testing.T) {
	s := newSpace(t)
	_, err := s.Stage(bytes.NewReader(make([]byte, 11)), 10)
	assert.ErrorIs(t, err, common.ErrMediaTooLarge)

	entries, err := os.ReadDir(s.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	staged, err := s.Stage(bytes.NewReader(make([]byte, 10)), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), staged.Size)
}

func TestWriteOutputIsExclusive(t *testing.T) {
	s := newSpace(t)
	loc, err := s.WriteOutput("a.webp", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.OutputsDir, "a.webp"), loc)

	_, err = s.WriteOutput("a.webp", []byte("two"))
	assert.ErrorIs(t, err, ErrOutputExists)

	b, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
}

func TestWriteOutputRejectsPaths(t *testing.T) {
	s := newSpace(t)
	for _, name := range []string{"", "../escape", "sub/dir.png", ".hidden", ".."} {
		_, err := s.WriteOutput(name, []byte("x"))
		assert.ErrorIs(t, err, ErrBadFileName, "name %q", name)
	}
}

func TestRemoveOutput(t *testing.T) {
	s := newSpace(t)
	loc, err := s.WriteOutput("gone.png", []byte("x"))
	require.NoError(t, err)
	s.RemoveOutput(loc)
	_, err = os.Stat(loc)
	assert.True(t, os.IsNotExist(err))
}
