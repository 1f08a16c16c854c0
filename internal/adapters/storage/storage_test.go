package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Write(ctx, "exports/filtered_data.csv", []byte("a,b\n1,2\n")))

	got, err := s.Read(ctx, "exports/filtered_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
}

func TestMemoryStorage_ReadMissing(t *testing.T) {
	_, err := NewMemoryStorage().Read(context.Background(), "nope.csv")
	assert.ErrorContains(t, err, "file not found: nope.csv")
}

func TestStorage_WriteStream(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.WriteStream(ctx, "deep/dir/out.csv", strings.NewReader("x\n")))

	exists, err := s.Exists(ctx, "deep/dir/out.csv")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(ctx, "deep/other.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStorage()
	assert.ErrorIs(t, s.Write(ctx, "a.csv", nil), context.Canceled)
	assert.ErrorIs(t, s.WriteStream(ctx, "a.csv", strings.NewReader("")), context.Canceled)
}

func TestFsStorage_BasePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFsStorage(fs, "/base/path")

	require.NoError(t, s.Write(context.Background(), "relative.csv", []byte("1")))
	ok, err := afero.Exists(fs, "/base/path/relative.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "/base/path/relative.csv", s.Location("relative.csv"))
	assert.Equal(t, "/absolute/path.csv", s.Location("/absolute/path.csv"))
}

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(nil)
	require.NoError(t, err)
	assert.Equal(t, "out.csv", s.Location("out.csv"))

	s, err = NewStorage(&Config{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, s)

	_, err = NewStorage(&Config{Type: "s3"})
	assert.ErrorContains(t, err, "unknown storage type")
}
