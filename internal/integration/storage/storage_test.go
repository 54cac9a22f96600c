package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "products/p1/abc.png", ObjectKey("/products/p1/", "abc", "Figure.PNG"))
	assert.Equal(t, "blog/x", ObjectKey("blog", "x", "noext"))
}

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("http://cdn.local/media/")
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m.SetClock(func() time.Time { return at })

	require.NoError(t, m.Upload(ctx, "products/a.png", strings.NewReader("img"), 3, "image/png"))
	require.NoError(t, m.Upload(ctx, "blog/b.png", strings.NewReader("img2"), 4, "image/png"))
	assert.Equal(t, "http://cdn.local/media/products/a.png", m.GetFileURL("products/a.png"))
	assert.Equal(t, "", m.GetFileURL(""))

	objs, err := m.List(ctx, "products/")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, int64(3), objs[0].Size)
	assert.True(t, at.Equal(objs[0].LastModified))

	require.NoError(t, m.Delete(ctx, "products/a.png"))
	assert.ErrorIs(t, m.Delete(ctx, "products/a.png"), ErrNotFound)
	_, ok := m.Get("products/a.png")
	assert.False(t, ok)
}
