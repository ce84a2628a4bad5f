package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_Put(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir, "http://localhost:8080/blobs/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "faces/abc.jpg", []byte("image-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blobs/faces/abc.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "faces", "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "http://localhost/blobs")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg")
	assert.Error(t, err)
}
