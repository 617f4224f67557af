package service

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecipeImagePassThrough(t *testing.T) {
	svc := NewImageService(nil, t.TempDir())
	ctx := context.Background()

	for _, url := range []string{"", "https://cdn.example.com/a.png", "http://host/b.jpg", "/media/recipe-images/c.png"} {
		got, err := svc.StoreRecipeImage(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, url, got)
	}
}

func TestStoreRecipeImageLocal(t *testing.T) {
	dir := t.TempDir()
	svc := NewImageService(nil, dir)

	payload := base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))
	url, err := svc.StoreRecipeImage(context.Background(), "data:image/png;base64,"+payload)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/media/recipe-images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), stored)
}

func TestStoreRecipeImageRejectsBadInput(t *testing.T) {
	svc := NewImageService(nil, t.TempDir())
	ctx := context.Background()

	var validationErr *ValidationError

	_, err := svc.StoreRecipeImage(ctx, "garbage")
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.StoreRecipeImage(ctx, "data:image/tiff;base64,AAAA")
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.StoreRecipeImage(ctx, "data:image/png;base64,not-base64!!")
	require.ErrorAs(t, err, &validationErr)
}
