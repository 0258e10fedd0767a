package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

func TestMemoryStore_PutAndRemove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	file := &domain.SelectedFile{Name: "leaf.png", ContentType: "image/png", Data: []byte("bytes")}
	h, err := s.Put(ctx, "sess", file)
	require.NoError(t, err)
	require.NotEmpty(t, h.Key)
	require.Contains(t, h.URL, "memory://")
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.Remove(ctx, h))
	require.Equal(t, 0, s.Len())

	// remove kedua harus gagal, bukan diam-diam sukses
	require.Error(t, s.Remove(ctx, h))
}

func TestMemoryStore_PutCopiesData(t *testing.T) {
	s := NewMemoryStore()
	data := []byte("original")
	file := &domain.SelectedFile{Name: "leaf.png", ContentType: "image/png", Data: data}

	_, err := s.Put(context.Background(), "sess", file)
	require.NoError(t, err)

	data[0] = 'X'
	// isi store tidak boleh ikut berubah
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.objects {
		require.Equal(t, []byte("original"), stored)
	}
}
